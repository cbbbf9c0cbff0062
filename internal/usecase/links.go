package usecase

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// LinkBuilder constructs outbound search links for packages. The pipeline
// only stores the resulting URL strings.
type LinkBuilder interface {
	FlightSearchURL(origin, destination string, depart, ret time.Time) string
	HotelSearchURL(city string, checkIn, checkOut time.Time) string
}

// SearchLinkBuilder formats deterministic search URLs against a partner
// site. Same input always yields the same URL.
type SearchLinkBuilder struct {
	flightBase string
	hotelBase  string
	marker     string
}

func NewSearchLinkBuilder(flightBase, hotelBase, marker string) *SearchLinkBuilder {
	if flightBase == "" {
		flightBase = "https://www.aviasales.com/search"
	}
	if hotelBase == "" {
		hotelBase = "https://search.hotellook.com"
	}
	return &SearchLinkBuilder{
		flightBase: strings.TrimRight(flightBase, "/"),
		hotelBase:  strings.TrimRight(hotelBase, "/"),
		marker:     marker,
	}
}

func (b *SearchLinkBuilder) FlightSearchURL(origin, destination string, depart, ret time.Time) string {
	// Aviasales route format: ORIGddmmDESTddmm.
	route := fmt.Sprintf("%s%s%s%s",
		strings.ToUpper(origin), depart.Format("0201"),
		strings.ToUpper(destination), ret.Format("0201"))
	link := b.flightBase + "/" + route
	if b.marker != "" {
		link += "?marker=" + url.QueryEscape(b.marker)
	}
	return link
}

func (b *SearchLinkBuilder) HotelSearchURL(city string, checkIn, checkOut time.Time) string {
	params := url.Values{}
	params.Set("destination", city)
	params.Set("checkIn", checkIn.Format("2006-01-02"))
	params.Set("checkOut", checkOut.Format("2006-01-02"))
	if b.marker != "" {
		params.Set("marker", b.marker)
	}
	return b.hotelBase + "/?" + params.Encode()
}
