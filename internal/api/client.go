// Package api is the gateway to the remote fuel-price HTTP API: a typed
// client interface, its net/http implementation, and the error taxonomy for
// server-reported failures.
package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jortega/fuelwatch/internal/models"
)

// Client is the remote API surface used by the session and query layers.
//
// The bearer token is an explicit argument on authenticated calls: the value
// captured at dispatch rides the whole request, so mutating the session
// token never alters an in-flight request's headers. An empty token sends no
// Authorization header and lets the server answer 401.
type Client interface {
	// Login exchanges credentials for a bearer token (POST /token).
	Login(ctx context.Context, username, password string) (string, error)

	// Register creates a new account (POST /users).
	Register(ctx context.Context, req RegisterRequest) (models.UserProfile, error)

	// CurrentUser fetches the profile the token belongs to (GET /users/me).
	CurrentUser(ctx context.Context, token string) (models.UserProfile, error)

	// Stations lists service stations matching the filters (GET /stations).
	Stations(ctx context.Context, token string, filters StationFilters) ([]models.Station, error)

	Close() error
}

// RegisterRequest is the JSON body of POST /users.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// StationFilters are the optional query filters of GET /stations.
// Zero values are omitted from the query string.
type StationFilters struct {
	Province   string
	Town       string
	Flag       string
	FlagID     int
	Product    string
	ProductID  int
	HourTypeID int
	Page       int
	Limit      int
}

// Values renders the filters as URL query parameters, dropping empty and
// zero values so {province: ""} and {} produce the same query.
func (f StationFilters) Values() url.Values {
	v := url.Values{}
	setStr := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setInt := func(key string, val int) {
		if val != 0 {
			v.Set(key, strconv.Itoa(val))
		}
	}
	setStr("province", f.Province)
	setStr("town", f.Town)
	setStr("flag", f.Flag)
	setInt("flag_id", f.FlagID)
	setStr("product", f.Product)
	setInt("product_id", f.ProductID)
	setInt("hour_type_id", f.HourTypeID)
	setInt("page", f.Page)
	setInt("limit", f.Limit)
	return v
}

// WithoutPaging returns a copy of the filters with pagination cleared.
// The upstream returns the full collection; pages are pure slices of it.
func (f StationFilters) WithoutPaging() StationFilters {
	f.Page = 0
	f.Limit = 0
	return f
}
