package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
)

func TestBufferHull_DryRun(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"buffer-hull", "LINESTRING (0 0, 4 0)", "--distance", "2.5", "--wkid", "32632", "--dry-run"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var req model.Request
	if err := json.Unmarshal(out.Bytes(), &req); err != nil {
		t.Fatalf("decode %s: %v", out.String(), err)
	}
	if req.Operator != model.OpConvexHull || req.ConvexParams == nil || !req.ConvexParams.Merge {
		t.Fatalf("outer=%+v", req)
	}
	inner := req.GeometryRequest
	if inner == nil || inner.Operator != model.OpBuffer || inner.BufferParams.DistanceAt(0) != 2.5 {
		t.Fatalf("inner=%+v", inner)
	}
	if inner.OperationSR == nil || inner.OperationSR.WKID != 32632 || inner.Geometry.SR.WKID != 32632 {
		t.Fatalf("spatial reference not carried: %+v", inner)
	}
}

func TestExec_RejectsBadDocument(t *testing.T) {
	root := newRootCmd()
	root.SetIn(bytes.NewBufferString(`{"operator":`))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"exec", "-"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected a decode error")
	}
}
