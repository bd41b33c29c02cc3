package callook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StationRecord is a normalized registry entry for one callsign
type StationRecord struct {
	Callsign      string    `json:"callsign"`
	OperatorClass string    `json:"operator_class"`
	Name          string    `json:"name"`
	AddressLines  [2]string `json:"address_lines"`
	GrantDate     string    `json:"grant_date"`
	ExpiryDate    string    `json:"expiry_date"`
	Gridsquare    string    `json:"gridsquare"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	HasLocation   bool      `json:"has_location"`  // false when the registry published no coordinates
	LatitudeText  string    `json:"latitude_text"` // coordinates as the registry wrote them
	LongitudeText string    `json:"longitude_text"`
	FRN           string    `json:"frn"`
	ULSURL        string    `json:"uls_url"`
}

// Address joins the two address lines the way they are printed on a QSL card
func (r *StationRecord) Address() string {
	return strings.Join([]string{r.AddressLines[0], r.AddressLines[1]}, ", ")
}

// Config represents the registry client configuration
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	UserAgent      string
}

// DefaultConfig returns the public callook.info endpoint
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://callook.info",
		RequestTimeout: 10 * time.Second,
		UserAgent:      "hamsearch/1.0",
	}
}

// registryResponse mirrors the callook.info JSON document. Every field is a
// pointer so that absence can be told apart from an empty value.
type registryResponse struct {
	Current   *currentLicense  `json:"current"`
	Name      *string          `json:"name"`
	Address   *registryAddress `json:"address"`
	Location  *registryLoc     `json:"location"`
	OtherInfo *otherInfo       `json:"otherInfo"`
}

type currentLicense struct {
	Callsign  *string `json:"callsign"`
	OperClass *string `json:"operClass"`
}

type registryAddress struct {
	Line1 *string `json:"line1"`
	Line2 *string `json:"line2"`
}

type registryLoc struct {
	Latitude   *coordinate `json:"latitude"`
	Longitude  *coordinate `json:"longitude"`
	Gridsquare *string     `json:"gridsquare"`
}

type otherInfo struct {
	GrantDate  *string `json:"grantDate"`
	ExpiryDate *string `json:"expiryDate"`
	FRN        *string `json:"frn"`
	ULSURL     *string `json:"ulsUrl"`
}

// coordinate accepts the registry's quoted decimal ("41.714775") as well as a bare number
type coordinate string

func (c *coordinate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = coordinate(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("coordinate must be a string or number, got %s", string(data))
	}
	*c = coordinate(n.String())
	return nil
}
