package event

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// Scenario names a synthetic adversarial pattern used to construct
// reproducible test events. It is a construction aid for tests and demo
// seeding, not a runtime control path.
type Scenario int

const (
	NormalOperation Scenario = iota
	SIMSwap
	SIMCloning
	DeviceSpoofing
	ImpossibleTravel
	BotAttack
	Phishing
	MultiVector
)

// String returns the scenario's wire name.
func (s Scenario) String() string {
	switch s {
	case NormalOperation:
		return "normal_operation"
	case SIMSwap:
		return "sim_swap"
	case SIMCloning:
		return "sim_cloning"
	case DeviceSpoofing:
		return "device_spoofing"
	case ImpossibleTravel:
		return "impossible_travel"
	case BotAttack:
		return "bot_attack"
	case Phishing:
		return "phishing"
	case MultiVector:
		return "multi_vector"
	default:
		return "unknown"
	}
}

// ParseScenario maps a wire name back to a Scenario.
func ParseScenario(name string) (Scenario, bool) {
	for s := NormalOperation; s <= MultiVector; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Baseline coordinates and identifiers the enrolled account is assumed to
// hold. Synthesized attack events deviate from these.
const (
	enrolledLat = 12.9716
	enrolledLon = 77.5946
)

var enrolledFeatures = []float64{170, 200, 0.62, 0.48}

// EnrolledDevice returns the device snapshot the enrolled profile knows.
func EnrolledDevice(accountID string) DeviceSnapshot {
	return DeviceSnapshot{
		DeviceID:     "dev-" + accountID,
		HardwareHash: hash8("hw", accountID),
		OSBuildHash:  hash8("os", accountID),
		MutableHash:  hash8("mut", accountID),
	}
}

// EnrolledSIM returns the SIM identity the enrolled profile knows.
func EnrolledSIM(accountID string) SIMIdentity {
	return SIMIdentity{
		CarrierID:    "carrier-01",
		IdentityHash: hash8("sim", accountID),
		MSISDN:       "+91" + hash8("msisdn", accountID),
	}
}

// EnrolledFeatures returns a copy of the baseline behavioral feature vector.
func EnrolledFeatures() []float64 {
	out := make([]float64, len(enrolledFeatures))
	copy(out, enrolledFeatures)
	return out
}

// Synthesize builds a deterministic Event for the scenario. The same
// (scenario, accountID, seq) triple always yields the same event, so
// adversarial cases replay identically across runs.
func Synthesize(s Scenario, accountID string, seq int, at time.Time) *Event {
	rng := rand.New(rand.NewSource(seed(s, accountID, seq)))

	ev := &Event{
		ID:        fmt.Sprintf("%s-%s-%d", s, accountID, seq),
		AccountID: accountID,
		Timestamp: at,
		Device:    EnrolledDevice(accountID),
		Geo:       GeoCoordinate{Lat: enrolledLat, Lon: enrolledLon, AccuracyKM: 0.05},
		SIM:       EnrolledSIM(accountID),
		Channel:   ChannelMobile,
		Behavioral: BehavioralSample{
			Features:       jitterFeatures(rng, 0.02),
			ActionDeltasMS: humanDeltas(rng),
		},
	}

	switch s {
	case NormalOperation:
		// Enrolled identity as-is.
	case SIMSwap:
		ev.SIM.IdentityHash = hash8("swapped", accountID) + fmt.Sprint(seq%7)
	case SIMCloning:
		// Same MSISDN, conflicting identity hash; pair with the enrolled
		// SIM in an overlapping window to trigger the clone rule.
		ev.SIM.IdentityHash = hash8("clone", accountID)
	case DeviceSpoofing:
		// Immutable attributes change while device id and mutable set match.
		ev.Device.HardwareHash = hash8("spoof-hw", accountID)
		ev.Device.OSBuildHash = hash8("spoof-os", accountID)
	case ImpossibleTravel:
		hops := [][2]float64{{40.7128, -74.0060}, {51.5074, -0.1278}, {35.6762, 139.6503}}
		h := hops[rng.Intn(len(hops))]
		ev.Geo.Lat, ev.Geo.Lon = h[0], h[1]
	case BotAttack:
		ev.Device.DeviceID = "bot-" + hash8("bot", accountID)
		ev.Behavioral.ActionDeltasMS = botDeltas()
		ev.Behavioral.Features = []float64{100, 150, 0.5, 0.5}
	case Phishing:
		ev.Channel = ChannelWeb
		ev.Origin = SessionOrigin{
			OriginHost: "secure-banking-verify.example.net",
			Referrer:   "http://secure-banking-verify.example.net/login",
			RedirectChain: []string{
				"mail.example.com", "lnk.example.io",
				"track.example.biz", "secure-banking-verify.example.net",
			},
		}
	case MultiVector:
		ev.SIM.IdentityHash = hash8("swapped", accountID)
		ev.Device = DeviceSnapshot{
			DeviceID:     "attack-" + hash8("dev", accountID),
			HardwareHash: hash8("attack-hw", accountID),
			OSBuildHash:  hash8("attack-os", accountID),
			MutableHash:  hash8("attack-mut", accountID),
		}
		ev.Geo.Lat = 10 + rng.Float64()*5
		ev.Geo.Lon = 75 + rng.Float64()*10
		ev.Behavioral.Features = []float64{95, 120, 0.2, 0.9}
	}

	return ev
}

func seed(s Scenario, accountID string, seq int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%d", s, accountID, seq)
	return int64(h.Sum64() >> 1)
}

func hash8(parts ...string) string {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

func jitterFeatures(rng *rand.Rand, scale float64) []float64 {
	out := make([]float64, len(enrolledFeatures))
	for i, f := range enrolledFeatures {
		out[i] = f * (1 + (rng.Float64()*2-1)*scale)
	}
	return out
}

// humanDeltas produces irregular inter-action gaps typical of a person.
func humanDeltas(rng *rand.Rand) []float64 {
	out := make([]float64, 24)
	for i := range out {
		out[i] = 120 + rng.Float64()*180
	}
	return out
}

// botDeltas produces the machine-regular gaps the bot layer keys on.
func botDeltas() []float64 {
	out := make([]float64, 24)
	for i := range out {
		out[i] = 50
	}
	return out
}
