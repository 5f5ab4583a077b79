package application

import (
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type FindRideData struct {
	RideID string `json:"ride_id"`
}

type findRideQuery struct {
	data FindRideData
}

func (q findRideQuery) QueryName() string {
	return "FindRide"
}

func (q findRideQuery) Payload() FindRideData {
	return q.data
}

func NewFindRideQuery(data FindRideData) domain.Query[FindRideData] {
	return findRideQuery{data: data}
}
