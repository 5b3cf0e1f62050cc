package kafkaconsumer_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/IBM/sarama"
	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/invalidation"
	"github.com/mohammed-shakir/geometry-operators/internal/invalidation/kafkaconsumer"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref/registry"
)

const tmerc = "+proj=tmerc +lat_0=0 +lon_0=%d +k=0.9996 +x_0=500000 +y_0=0 +datum=WGS84 +units=m +no_defs"

func def(lon int) string { return fmt.Sprintf(tmerc, lon) }

// centralMeridian maps the false-easting origin of wkid back to longitude.
func centralMeridian(t *testing.T, frames *spatialref.Resolver, wkid int) float64 {
	t.Helper()
	f, err := frames.Resolve(context.Background(), &model.SpatialRef{WKID: wkid})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	tr, err := spatialref.NewTransform(f, spatialref.MustWGS84())
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	lon, _, err := tr(500000, 0)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return lon
}

func TestIntegration_ReRegisteredDefinitionTakesEffect(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reg, err := registry.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })

	frames, err := spatialref.NewResolver(spatialref.Options{Registry: reg})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	const wkid = 990001
	if err := reg.Put(ctx, wkid, def(15)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if lon := centralMeridian(t, frames, wkid); math.Abs(lon-15) > 1e-9 {
		t.Fatalf("lon=%v want 15", lon)
	}

	// another instance re-registers; the cached parse is still served
	if err := reg.Put(ctx, wkid, def(9)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if lon := centralMeridian(t, frames, wkid); math.Abs(lon-15) > 1e-9 {
		t.Fatalf("lon=%v want cached 15", lon)
	}

	cons := kafkaconsumer.New(kafkaconsumer.Config{Topic: "t"}, nil, frames)
	body := []byte(`{"version":1,"op":"` + invalidation.OpRegister + `","wkid":990001,"ts":"2025-10-26T12:00:00Z"}`)
	if err := cons.ProcessOne(ctx, &sarama.ConsumerMessage{Topic: "t", Offset: 1, Value: body}); err != nil {
		t.Fatalf("processOne: %v", err)
	}
	if lon := centralMeridian(t, frames, wkid); math.Abs(lon-9) > 1e-9 {
		t.Fatalf("lon=%v want 9 after invalidation", lon)
	}
}
