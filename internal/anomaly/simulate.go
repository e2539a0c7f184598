package anomaly

import (
	"math/rand"
	"time"

	"coinsync/internal/domain"

	"github.com/shopspring/decimal"
)

// simulatedNames are the assets a simulated alert is attributed to.
var simulatedNames = []string{"Bitcoin", "Ethereum", "Solana", "Cardano"}

var simulatedKinds = []domain.AlertKind{
	domain.AlertPriceSpike,
	domain.AlertPriceDrop,
	domain.AlertDataIntegrity,
}

// Simulate builds a random alert for exercising the presentation layer
// without waiting for a real anomaly.
func Simulate(rng *rand.Rand, now time.Time) domain.Alert {
	kind := simulatedKinds[rng.Intn(len(simulatedKinds))]
	name := simulatedNames[rng.Intn(len(simulatedNames))]

	severity := domain.SeverityMedium
	if rng.Float64() > 0.5 {
		severity = domain.SeverityHigh
	}

	var msg string
	if kind == domain.AlertDataIntegrity {
		msg = domain.IntegrityMessage(name)
	} else {
		change := decimal.NewFromFloat(rng.Float64() * 30)
		msg = domain.PriceChangeMessage(kind, name, change)
	}
	return domain.NewAlert(kind, severity, msg, now)
}
