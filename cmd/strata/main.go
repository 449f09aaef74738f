// Package main provides the Strata tensor runtime CLI.
package main

import (
	"fmt"
	"os"

	"github.com/strata3d/strata/accel"
	"github.com/strata3d/strata/nns"
	"github.com/strata3d/strata/tensor"
)

const version = "v0.1.0-dev"

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "version":
		fmt.Printf("Strata tensor runtime %s\n", version)
	case "devices":
		reportDevices()
	case "smoke":
		if err := smoke(); err != nil {
			fmt.Fprintln(os.Stderr, "smoke failed:", err)
			os.Exit(1)
		}
	default:
		fmt.Println("Strata - device-polymorphic tensors for Go")
		fmt.Printf("Version: %s\n\n", version)
		fmt.Println("Commands:")
		fmt.Println("  version    Show version")
		fmt.Println("  devices    Report available compute devices")
		fmt.Println("  smoke      Run a small end-to-end computation")
	}
}

func reportDevices() {
	fmt.Println("cpu: available")
	if accel.IsAvailable() {
		fmt.Printf("webgpu: %d device(s)\n", accel.DeviceCount())
	} else {
		fmt.Println("webgpu: not available")
	}
}

// smoke exercises broadcasting, promotion and the neighbor index end to
// end on whatever devices are present.
func smoke() error {
	a, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3, 1}, tensor.CPU)
	if err != nil {
		return err
	}
	defer a.Release()
	b, err := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{1, 4}, tensor.CPU)
	if err != nil {
		return err
	}
	defer b.Release()

	sum, err := tensor.Add(a, b)
	if err != nil {
		return err
	}
	defer sum.Release()
	fmt.Printf("add [3,1] + [1,4] -> %v\n", sum.Shape())
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			fmt.Printf("%6.1f", tensor.At[float32](sum, i, j))
		}
		fmt.Println()
	}

	points, err := tensor.FromSlice([]float32{
		0, 0, 0,
		0.05, 0, 0,
		1, 1, 1,
	}, tensor.Shape{3, 3}, tensor.CPU)
	if err != nil {
		return err
	}
	defer points.Release()

	idx := nns.NewFixedRadiusIndex()
	if err := idx.SetTensorData(points, 0.1); err != nil {
		return err
	}
	res, err := idx.SearchRadius(points, 0.1, true)
	if err != nil {
		return err
	}
	defer res.Indices.Release()
	defer res.Distances.Release()
	defer res.RowSplits.Release()

	for q := 0; q < 3; q++ {
		lo := tensor.At[int64](res.RowSplits, q)
		hi := tensor.At[int64](res.RowSplits, q+1)
		fmt.Printf("query %d: %d neighbor(s) within r=0.1\n", q, hi-lo)
	}
	return nil
}
