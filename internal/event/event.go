package event

import "time"

// Channel identifies the banking channel an event arrived on.
type Channel string

const (
	ChannelMobile Channel = "mobile"
	ChannelWeb    Channel = "web"
)

// Valid reports whether the channel is one of the known values.
func (c Channel) Valid() bool {
	return c == ChannelMobile || c == ChannelWeb
}

// DeviceSnapshot is the hashed attribute set presented by the client device.
// Hardware and OS build hashes cover attributes that cannot change without
// the physical device changing; MutableHash covers attributes that drift
// with ordinary OS/app updates.
type DeviceSnapshot struct {
	DeviceID     string `json:"device_id"`
	HardwareHash string `json:"hardware_hash"`
	OSBuildHash  string `json:"os_build_hash"`
	MutableHash  string `json:"mutable_hash"`
}

// GeoCoordinate is a client-reported location fix.
type GeoCoordinate struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AccuracyKM float64 `json:"accuracy_km"`
}

// SIMIdentity identifies the SIM presented by the session.
type SIMIdentity struct {
	CarrierID    string `json:"carrier_id"`
	IdentityHash string `json:"identity_hash"`
	MSISDN       string `json:"msisdn"`
}

// BehavioralSample carries interaction dynamics captured during the session.
// Features is the enrolled feature vector (timing/pressure/gesture);
// ActionDeltasMS are raw inter-action timing gaps used for the bot test.
type BehavioralSample struct {
	Features       []float64 `json:"features"`
	ActionDeltasMS []float64 `json:"action_deltas_ms"`
}

// SessionOrigin carries the session's web origin metadata for phishing checks.
// Empty on channels where no referrer exists.
type SessionOrigin struct {
	OriginHost    string   `json:"origin_host,omitempty"`
	Referrer      string   `json:"referrer,omitempty"`
	RedirectChain []string `json:"redirect_chain,omitempty"`
}

// Event is the canonical, immutable authentication/transaction event.
// Construct via Ingest so every Event in the system has passed validation.
type Event struct {
	ID         string           `json:"event_id"`
	AccountID  string           `json:"account_id"`
	Timestamp  time.Time        `json:"timestamp"`
	Device     DeviceSnapshot   `json:"device_snapshot"`
	Geo        GeoCoordinate    `json:"geo_coordinate"`
	SIM        SIMIdentity      `json:"sim_identity"`
	Behavioral BehavioralSample `json:"behavioral_sample"`
	Channel    Channel          `json:"channel"`
	Origin     SessionOrigin    `json:"session_origin"`
}
