package gibs

import "github.com/1F47E/go-gibsreel/pkg/frame"

// Platform is the satellite carrying the instrument.
type Platform int

const (
	GoesEast Platform = iota + 1
	GoesWest
	Himawari8
)

func (p Platform) String() string {
	switch p {
	case GoesEast:
		return "GOES-East"
	case GoesWest:
		return "GOES-West"
	case Himawari8:
		return "Himawari-8"
	}
	return "unknown"
}

// Product is one GIBS imagery layer.
type Product struct {
	Platform   Platform
	Instrument string
	Image      frame.Format
	Layer      string
}

// CleanInfrared returns the Band 13 clean infrared product of a platform.
// https://wiki.earthdata.nasa.gov/display/GIBS/GIBS+Available+Imagery+Products#expand-CleanInfrared3Products
func CleanInfrared(platform Platform) Product {
	var layer string
	switch platform {
	case GoesEast:
		layer = "GOES-East_ABI_Band13_Clean_Infrared"
	case GoesWest:
		layer = "GOES-West_ABI_Band13_Clean_Infrared"
	case Himawari8:
		layer = "Himawari_AHI_Band3_Red_Visible_1km"
	}
	return Product{
		Platform:   platform,
		Instrument: "ABI",
		Image:      frame.PNG,
		Layer:      layer,
	}
}

// Products lists the known products.
func Products() []Product {
	return []Product{
		CleanInfrared(GoesEast),
		CleanInfrared(GoesWest),
		CleanInfrared(Himawari8),
	}
}
