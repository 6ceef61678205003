package event

import (
	"reflect"
	"testing"
	"time"
)

func TestSynthesize_Deterministic(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	for s := NormalOperation; s <= MultiVector; s++ {
		a := Synthesize(s, "acct-1", 3, at)
		b := Synthesize(s, "acct-1", 3, at)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: identical triples produced different events", s)
		}
	}
}

func TestSynthesize_SequencesDiffer(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	a := Synthesize(NormalOperation, "acct-1", 0, at)
	b := Synthesize(NormalOperation, "acct-1", 1, at)
	if reflect.DeepEqual(a.Behavioral, b.Behavioral) {
		t.Error("distinct sequence numbers produced identical behavioral samples")
	}
}

func TestSynthesize_EventsPassIngestion(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	for s := NormalOperation; s <= MultiVector; s++ {
		ev := Synthesize(s, "acct-1", 0, at)
		if _, err := Ingest(*ev); err != nil {
			t.Errorf("%s: synthesized event failed ingestion: %v", s, err)
		}
	}
}

func TestSynthesize_ScenarioShapes(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	normal := Synthesize(NormalOperation, "acct-1", 0, at)
	if normal.SIM != EnrolledSIM("acct-1") || normal.Device != EnrolledDevice("acct-1") {
		t.Error("normal operation must present the enrolled identity")
	}

	swap := Synthesize(SIMSwap, "acct-1", 0, at)
	if swap.SIM.IdentityHash == EnrolledSIM("acct-1").IdentityHash {
		t.Error("sim swap must change the identity hash")
	}
	if swap.SIM.MSISDN != EnrolledSIM("acct-1").MSISDN {
		t.Error("sim swap keeps the MSISDN")
	}

	spoof := Synthesize(DeviceSpoofing, "acct-1", 0, at)
	if spoof.Device.DeviceID != EnrolledDevice("acct-1").DeviceID {
		t.Error("device spoofing keeps the device id")
	}
	if spoof.Device.HardwareHash == EnrolledDevice("acct-1").HardwareHash {
		t.Error("device spoofing must change the hardware hash")
	}
	if spoof.Device.MutableHash != EnrolledDevice("acct-1").MutableHash {
		t.Error("device spoofing keeps the mutable hash")
	}

	bot := Synthesize(BotAttack, "acct-1", 0, at)
	for _, d := range bot.Behavioral.ActionDeltasMS {
		if d != bot.Behavioral.ActionDeltasMS[0] {
			t.Fatal("bot attack deltas must be machine-regular")
		}
	}

	phish := Synthesize(Phishing, "acct-1", 0, at)
	if phish.Origin.OriginHost == "" || len(phish.Origin.RedirectChain) <= 3 {
		t.Error("phishing scenario must carry a deep redirect chain and origin host")
	}
}

func TestParseScenario_RoundTrip(t *testing.T) {
	for s := NormalOperation; s <= MultiVector; s++ {
		got, ok := ParseScenario(s.String())
		if !ok || got != s {
			t.Errorf("round trip failed for %s", s)
		}
	}
	if _, ok := ParseScenario("nope"); ok {
		t.Error("unknown name parsed")
	}
}
