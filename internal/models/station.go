package models

import "time"

// Geometry is a GeoJSON-style point. Coordinates are [longitude, latitude].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Price is a single priced observation reported for a product.
type Price struct {
	Price      float64   `json:"price"`
	Date       time.Time `json:"date"`
	HourType   string    `json:"hourType"`
	HourTypeID int       `json:"hourTypeId"`
	UserID     int64     `json:"userId,omitempty"`
	UserName   string    `json:"userName,omitempty"`
}

// Product is a fuel product sold at a station, with its price history
// ordered oldest to newest.
type Product struct {
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName"`
	Prices      []Price `json:"prices"`
	LastPrice   float64 `json:"lastPrice,omitempty"`
	LastUpdate  string  `json:"lastUpdate,omitempty"`
	PriceChange float64 `json:"priceChange,omitempty"`
}

// Station is a service station record as returned by GET /stations.
type Station struct {
	StationID   int       `json:"stationId"`
	StationName string    `json:"stationName"`
	Address     string    `json:"address"`
	Town        string    `json:"town"`
	Province    string    `json:"province"`
	Flag        string    `json:"flag"`
	FlagID      int       `json:"flagId"`
	Geometry    Geometry  `json:"geometry"`
	Products    []Product `json:"products"`
}
