package handlers

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinates are stored at a fixed 7-decimal scale so that equal inputs
// always produce byte-equal values and the (name, lat, lng) unique index
// can dedupe on exact match.
const coordScale = 7

func coordDecimal(value float64) primitive.Decimal128 {
	formatted := fmt.Sprintf("%.*f", coordScale, value)
	dec, err := primitive.ParseDecimal128(formatted)
	if err != nil {
		// Only reachable for NaN/Inf, which validateCoordinates rejects first.
		return primitive.Decimal128{}
	}
	return dec
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return nil
}
