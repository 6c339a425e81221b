package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodyquad/internal/analysis"
	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/viz"
)

var (
	verifyShapes []float64
	verifyStride int
	verifyTol    float64
)

func verifyFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&verifyShapes, "shape-factors", []float64{0, 0.5, 1, 2}, "shape factors to compare")
	cmd.Flags().IntVar(&verifyStride, "stride", 8, "compare every n-th particle")
	cmd.Flags().Float64Var(&verifyTol, "tol", 1e-9, "relative tolerance for aggregate checks")
}

func verifyScene(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	s, err := newSimulator(cfg, logger)
	if err != nil {
		return err
	}
	d := s.Config().Domain
	if err := s.BuildTree(d.Center, d.Half); err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("verify " + scene))
	fmt.Println(viz.KeyValue("particles", s.Store().Len()))
	fmt.Println(viz.KeyValue("nodes", fmt.Sprintf("%d / %d", s.Nodes().Len(), s.Nodes().Cap())))

	if err := barneshut.CheckInvariants(s.Store(), s.Nodes(), verifyTol); err != nil {
		return fmt.Errorf("tree invariants: %w", err)
	}
	fmt.Println(viz.KeyValue("invariants", "ok"))
	fmt.Println()

	stack := barneshut.NewWorkQueue(barneshut.StackCapacity(s.Config().MaxDepth))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SF\tSAMPLES\tMEAN ERR\tP95 ERR\tMAX ERR\tGONUM MEAN\tGONUM MAX\tREF MAX\tWORK/SAMPLE\tOPENED\tAGGREGATED")
	for _, sf := range verifyShapes {
		acc, err := analysis.CompareAccuracy(s.Store(), s.Evaluator(), sf, verifyStride, stack)
		if err != nil {
			return fmt.Errorf("shape factor %g: %w", sf, err)
		}
		fmt.Fprintf(w, "%.2f\t%d\t%.3e\t%.3e\t%.3e\t%.3e\t%.3e\t%.1e\t%.1f\t%d\t%d\n",
			sf, acc.Samples, acc.TreeMean, acc.TreeP95, acc.TreeMax,
			acc.GonumMean, acc.GonumMax, acc.ReferenceMax,
			acc.InteractionsPerSample(), acc.Work.Opened, acc.Work.Aggregated)
	}
	return w.Flush()
}
