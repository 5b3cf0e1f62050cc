// Command geomctl sends operation requests to a geometry server over gRPC.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/logger"
	"github.com/mohammed-shakir/geometry-operators/internal/transport/grpcapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "geomctl",
		Short:        "send geometry operation requests to a geometry server",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("addr", "localhost:9000", "gRPC address of the geometry server")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "deadline for the whole call")

	registerExecCmd(root)
	registerStreamCmd(root)
	registerBufferHullCmd(root)
	return root
}

// dial connects to --addr and returns a client plus a context carrying the
// call deadline and a request id.
func dial(cmd *cobra.Command) (*grpcapi.Client, context.Context, func(), error) {
	addr, _ := cmd.Flags().GetString("addr")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", logger.NewID())
	return grpcapi.NewClient(conn), ctx, func() {
		cancel()
		_ = conn.Close()
	}, nil
}

// readRequest decodes a request document from path, or stdin for "-".
func readRequest(cmd *cobra.Command, path string) (*model.Request, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var req model.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", path, err)
	}
	return &req, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func registerExecCmd(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "exec [request.json|-]",
		Short: "run a request and print its compacted response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd, argOr(args, "-"))
			if err != nil {
				return err
			}
			c, ctx, done, err := dial(cmd)
			if err != nil {
				return err
			}
			defer done()
			resp, err := c.Execute(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	root.AddCommand(cmd)
}

func registerStreamCmd(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "stream [request.json|-]",
		Short: "run a request and print one response per line as they arrive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd, argOr(args, "-"))
			if err != nil {
				return err
			}
			c, ctx, done, err := dial(cmd)
			if err != nil {
				return err
			}
			defer done()
			stream, err := c.Stream(ctx, req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for {
				resp, err := stream.Recv()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if err := enc.Encode(resp); err != nil {
					return err
				}
			}
		},
	}
	root.AddCommand(cmd)
}

func registerBufferHullCmd(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "buffer-hull WKT",
		Short: "buffer a geometry and return the convex hull of the buffers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			distance, _ := cmd.Flags().GetFloat64("distance")
			wkid, _ := cmd.Flags().GetInt("wkid")
			req := bufferHullRequest(args[0], distance, wkid)

			if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
				return printJSON(cmd.OutOrStdout(), req)
			}
			c, ctx, done, err := dial(cmd)
			if err != nil {
				return err
			}
			defer done()
			resp, err := c.Execute(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Float64("distance", 1, "buffer distance in units of the spatial reference")
	cmd.Flags().Int("wkid", 0, "spatial reference of the input and the operation")
	cmd.Flags().Bool("dry-run", false, "print the request instead of sending it")
	root.AddCommand(cmd)
}

// bufferHullRequest nests a Buffer request under a ConvexHull request.
func bufferHullRequest(wkt string, distance float64, wkid int) *model.Request {
	batch := &model.GeometryBatch{
		Encoding:   model.EncodingWKT,
		Geometries: []model.EncodedGeometry{{Text: wkt}},
	}
	var sr *model.SpatialRef
	if wkid > 0 {
		sr = &model.SpatialRef{WKID: wkid}
		batch.SR = sr
	}
	return &model.Request{
		Operator:     model.OpConvexHull,
		ConvexParams: &model.ConvexParams{Merge: true},
		GeometryRequest: &model.Request{
			Operator:     model.OpBuffer,
			Geometry:     batch,
			OperationSR:  sr,
			BufferParams: &model.BufferParams{Distances: []float64{distance}},
		},
		ResultEncoding: model.EncodingWKT,
	}
}

func argOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}
