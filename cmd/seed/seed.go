package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"sensor-failure-detection/shared/internal/platform/logger"
	"sensor-failure-detection/shared/pkg/domain"
	"sensor-failure-detection/shared/pkg/sensors"
	"sensor-failure-detection/shared/pkg/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const seedModelVersion = "1"

// seedRunID is stable across runs so the cluster registered last marks a
// completed seed.
var seedRunID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sensor-failure-detection/seed")).String()

type plan struct {
	Machines int
	Readings int
	Now      time.Time
}

type summary struct {
	Skipped     bool
	Machines    int
	Readings    int
	Predictions int
	FailureID   domain.ID
	ClusterID   domain.ID
	VersionID   domain.ID
	DriftID     domain.ID
}

func machineName(i int) string { return fmt.Sprintf("SEED-M%03d", i+1) }

// sample returns plausible sensor values. Readings taken during a failure run hot.
func sample(r *rand.Rand, failing bool) map[string]float64 {
	temp := 60 + r.Float64()*10
	vib := 0.2 + r.Float64()*0.3
	if failing {
		temp += 25
		vib *= 4
	}
	return map[string]float64{
		"temperature": temp,
		"vibration":   vib,
		"pressure":    95 + r.Float64()*10,
		"rpm":         1450 + r.Float64()*100,
	}
}

// seed writes the development data set. It returns a skipped summary when the
// seed cluster already exists.
func seed(ctx context.Context, svc *sensors.Service, st store.Store, p plan, l *logger.Logger) (summary, error) {
	var sum summary
	existing, err := store.FindOne[domain.Cluster](ctx, st, domain.CollectionClusters, bson.M{"mlflow_run_id": seedRunID})
	if err != nil {
		return sum, err
	}
	if existing != nil {
		l.Info("seed data already present", "mlflow_run_id", seedRunID)
		sum.Skipped = true
		return sum, nil
	}

	r := rand.New(rand.NewPCG(1, 2))
	for m := 0; m < p.Machines; m++ {
		name := machineName(m)
		machine, _, err := svc.RegisterMachine(ctx, name)
		if err != nil {
			return sum, fmt.Errorf("register %s: %w", name, err)
		}
		sum.Machines++

		// The first machine fails over the second half of its readings.
		failFrom := -1
		var failureID *domain.ID
		if m == 0 && p.Readings > 1 {
			failFrom = p.Readings / 2
		}
		for i := 0; i < p.Readings; i++ {
			ts := p.Now.Add(-time.Duration(p.Readings-i) * time.Minute)
			if i == failFrom {
				id, err := svc.OpenFailure(ctx, machine.ID, ts)
				if err != nil {
					return sum, fmt.Errorf("open failure: %w", err)
				}
				failureID = &id
				sum.FailureID = id
			}
			res, err := svc.IngestReading(ctx, name, sample(r, failureID != nil), ts, failureID)
			if err != nil {
				return sum, fmt.Errorf("ingest reading for %s: %w", name, err)
			}
			sum.Readings++
			conf := 0.5 + r.Float64()/2
			cluster := i % 3
			if failureID != nil {
				cluster = 3
			}
			if _, err := svc.RecordPrediction(ctx, sensors.PredictionInput{
				ReadingID:       res.ReadingID,
				ClusterID:       cluster,
				ModelVersion:    seedModelVersion,
				ConfidenceScore: &conf,
				MLflowRunID:     &seedRunID,
				PredictionTime:  ts,
			}); err != nil {
				return sum, fmt.Errorf("record prediction: %w", err)
			}
			sum.Predictions++
		}
		if failureID != nil {
			if _, err := svc.ResolveFailure(ctx, *failureID, p.Now); err != nil {
				return sum, fmt.Errorf("resolve failure: %w", err)
			}
		}
	}

	if sum.DriftID, err = svc.RecordDriftEvent(ctx, 0.12,
		map[string]any{"temperature_mean": 64.8, "vibration_mean": 0.35},
		map[string]any{"temperature_mean": 71.2, "vibration_mean": 0.61},
	); err != nil {
		return sum, fmt.Errorf("record drift event: %w", err)
	}
	if sum.VersionID, err = svc.RegisterModelVersion(ctx, seedModelVersion, seedRunID, false); err != nil {
		return sum, fmt.Errorf("register model version: %w", err)
	}
	if _, err := svc.MarkModelVersionProcessed(ctx, sum.VersionID); err != nil {
		return sum, fmt.Errorf("mark model version processed: %w", err)
	}
	if sum.ClusterID, err = svc.RegisterClusterModel(ctx, sensors.ClusterInput{
		MLflowRunID:        seedRunID,
		MLflowModelVersion: 1,
		NClusters:          4,
		SilhouetteScore:    0.62,
		ClusterProfiles: map[string]any{
			"0": map[string]any{"label": "idle"},
			"1": map[string]any{"label": "nominal"},
			"2": map[string]any{"label": "peak load"},
			"3": map[string]any{"label": "overheating"},
		},
		Active: true,
	}); err != nil {
		return sum, fmt.Errorf("register cluster model: %w", err)
	}
	return sum, nil
}
