package streamcheck

import (
	"errors"
	"net/url"
)

// Endpoint is a named stream address to probe.
//
// Endpoint is immutable after creation via [NewEndpoint] and is a comparable
// value: two endpoints are equal when both name and address are equal. Names
// need not be unique within a playlist.
type Endpoint struct {
	name    string
	address string
}

// Name returns the endpoint's display name, usually the station name.
func (e Endpoint) Name() string {
	return e.name
}

// Address returns the stream URL that is probed.
func (e Endpoint) Address() string {
	return e.address
}

// NewEndpoint creates an [Endpoint] with the given name and address.
//
// The address must be an absolute URL with a scheme and a host, for example
// "http://radio.example.com:8000/live". Returns an error if the name is
// empty or the address is not a valid locator.
//
// Example:
//
//	ep, err := streamcheck.NewEndpoint("Jazz FM", "https://stream.example.com/jazz")
func NewEndpoint(name, address string) (Endpoint, error) {
	if name == "" {
		return Endpoint{}, errors.New("endpoint name cannot be empty")
	}
	if address == "" {
		return Endpoint{}, errors.New("endpoint address cannot be empty")
	}

	parsedURL, err := url.Parse(address)
	if err != nil {
		return Endpoint{}, errors.New("invalid address: " + err.Error())
	}
	if parsedURL.Scheme == "" {
		return Endpoint{}, errors.New("address must have a scheme (http:// or https://)")
	}
	if parsedURL.Host == "" {
		return Endpoint{}, errors.New("address must have a host")
	}

	return Endpoint{name: name, address: address}, nil
}
