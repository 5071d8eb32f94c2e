package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/x448/float16"

	"github.com/born-ml/tt/internal/bfloat16"
	"github.com/born-ml/tt/internal/envconfig"
	"github.com/born-ml/tt/internal/safetensors"
	"github.com/born-ml/tt/internal/tensor"
)

const version = "v0.1.0-dev"

// NewCLI builds the command tree.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	var cfg envconfig.Config

	rootCmd := &cobra.Command{
		Use:           "tt",
		Short:         "Tiled tensor layout inspector",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg = envconfig.Load()
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel})))
			slog.Debug("config", "dtype", cfg.DefaultDType, "tile", cfg.TileExtent, "threads", cfg.NumThreads)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tt version %s\n", version)
		},
	}

	tiledCmd := &cobra.Command{
		Use:   "tiled",
		Short: "Print 1..105 as a tiled 3x5x7 tensor and its padded and tile views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return TiledHandler(cmd, cfg)
		},
	}
	tiledCmd.Flags().Uint("tile", 0, "Tile side (power of two; default TT_TILE or 4)")
	tiledCmd.Flags().String("dtype", "", "Element type (default TT_DEFAULT_DTYPE or float32)")
	tiledCmd.Flags().String("shape", "3,5,7", "Comma-separated extents")
	tiledCmd.Flags().Int("width", 3, "Element field width")
	tiledCmd.Flags().String("save", "", "Also write the tiled tensor to a SafeTensors file")

	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Describe a layout mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return LayoutHandler(cmd, cfg)
		},
	}
	layoutCmd.Flags().String("shape", "3,5,7", "Comma-separated extents")
	layoutCmd.Flags().String("kind", "tiled", "Layout: row-major, strided or tiled")
	layoutCmd.Flags().String("strides", "", "Comma-separated strides for the strided layout")
	layoutCmd.Flags().Uint("origin", 0, "Origin offset for the strided layout")
	layoutCmd.Flags().Uint("tile", 0, "Tile side (power of two; default TT_TILE or 4)")

	bf16Cmd := &cobra.Command{
		Use:   "bf16 FLOAT...",
		Short: "Show the bfloat16 rounding of decimal values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return BF16Handler(cmd, cfg, args)
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "List the tensors in a SafeTensors file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return InspectHandler(cmd, args)
		},
	}

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "List environment settings",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			EnvHandler(cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(
		versionCmd,
		tiledCmd,
		layoutCmd,
		bf16Cmd,
		inspectCmd,
		envCmd,
	)

	return rootCmd
}

// parseShape parses "3,5,7" into extents.
func parseShape(s string) (tensor.Extents, error) {
	sizes, err := parseIndices(s)
	if err != nil {
		return tensor.Extents{}, fmt.Errorf("invalid shape %q: %w", s, err)
	}
	if len(sizes) > tensor.MaxRank {
		return tensor.Extents{}, fmt.Errorf("invalid shape %q: rank %d exceeds %d", s, len(sizes), tensor.MaxRank)
	}
	return tensor.Dims(sizes...), nil
}

func parseIndices(s string) ([]tensor.Index, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []tensor.Index
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, tensor.Index(n))
	}
	return out, nil
}

// tileFlag returns --tile if set, else the configured default.
func tileFlag(cmd *cobra.Command, cfg envconfig.Config) (tensor.Index, error) {
	tile, _ := cmd.Flags().GetUint("tile")
	if tile == 0 {
		if cfg.TileExtent == 0 {
			return tensor.DefaultTileExtent, nil
		}
		return cfg.TileExtent, nil
	}
	if tile&(tile-1) != 0 {
		return 0, fmt.Errorf("tile %d: %w", tile, tensor.ErrTile)
	}
	return tile, nil
}

// TiledHandler prints the tiled example for the requested element type.
func TiledHandler(cmd *cobra.Command, cfg envconfig.Config) (err error) {
	defer tensor.Recover(&err)

	tile, err := tileFlag(cmd, cfg)
	if err != nil {
		return err
	}

	shapeFlag, _ := cmd.Flags().GetString("shape")
	e, err := parseShape(shapeFlag)
	if err != nil {
		return err
	}
	if e.Rank() < 2 {
		return fmt.Errorf("shape %v: tiled layout %w", e, tensor.ErrRank)
	}

	dt := cfg.DefaultDType
	if s, _ := cmd.Flags().GetString("dtype"); s != "" {
		if dt, err = tensor.ParseDType(s); err != nil {
			return err
		}
	}
	width, _ := cmd.Flags().GetInt("width")

	slog.Debug("tiled", "shape", e, "tile", tile, "dtype", dt)

	var st *safetensors.Writer
	save, _ := cmd.Flags().GetString("save")
	if save != "" {
		st = safetensors.NewWriter()
		st.SetMetadata("tt.tile", strconv.FormatUint(uint64(tile), 10))
	}

	w := cmd.OutOrStdout()
	switch dt {
	case tensor.Float32:
		err = printTiled[float32](w, st, e, tile, width)
	case tensor.Float64:
		err = printTiled[float64](w, st, e, tile, width)
	case tensor.BFloat16:
		err = printTiled[bfloat16.BFloat16](w, st, e, tile, width)
	case tensor.Float16:
		err = printTiled[float16.Float16](w, st, e, tile, width)
	case tensor.Uint8:
		err = printTiled[uint8](w, st, e, tile, width)
	case tensor.Int8:
		err = printTiled[int8](w, st, e, tile, width)
	case tensor.Int16:
		err = printTiled[int16](w, st, e, tile, width)
	case tensor.Int32:
		err = printTiled[int32](w, st, e, tile, width)
	case tensor.Int64:
		err = printTiled[int64](w, st, e, tile, width)
	case tensor.Bool:
		err = printTiled[bool](w, st, e, tile, width)
	case tensor.Complex64:
		err = printTiled[complex64](w, st, e, tile, width)
	case tensor.Complex128:
		err = printTiled[complex128](w, st, e, tile, width)
	default:
		return fmt.Errorf("unsupported dtype %v", dt)
	}
	if err != nil || st == nil {
		return err
	}

	slog.Debug("saving", "path", save)
	return st.WriteFile(save)
}

// printTiled fills e with 1, 2, ... in row-major order, converts it to a
// tiled layout and prints it under its logical, padded and per-tile shapes.
// If st is not nil the tiled tensor is added to it.
func printTiled[T tensor.Element](w io.Writer, st *safetensors.Writer, e tensor.Extents, tile tensor.Index, width int) error {
	src := tensor.Arange[T](e, 1)
	defer tensor.Release(src)

	tiled := tensor.ToTiledWith(src, tile, tile)
	defer tensor.Release(tiled)

	rows, cols := tiled.Mapping().Padding()
	outer := e.Sizes()[: e.Rank()-2 : e.Rank()-2]

	padded := tensor.Reshape(tiled, tensor.Dims(append(outer, rows, cols)...))
	tiles := tensor.Reshape(tiled, tensor.Dims(append(outer, rows/tile, cols/tile, tile, tile)...))

	elem := "%" + strconv.Itoa(width) + "v"
	for _, v := range []struct {
		e tensor.Extents
		s string
	}{
		{tiled.Extents(), tensor.FormatTensor(tiled, elem)},
		{padded.Extents(), tensor.FormatTensor(padded, elem)},
		{tiles.Extents(), tensor.FormatTensor(tiles, elem)},
	} {
		fmt.Fprintf(w, "%v:\n%s\n", v.e, v.s)
	}

	if st == nil {
		return nil
	}
	return safetensors.Add(st, "tiled", tiled)
}

// LayoutHandler prints the properties of a layout mapping.
func LayoutHandler(cmd *cobra.Command, cfg envconfig.Config) (err error) {
	defer tensor.Recover(&err)

	shapeFlag, _ := cmd.Flags().GetString("shape")
	e, err := parseShape(shapeFlag)
	if err != nil {
		return err
	}
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := tensor.ParseLayoutKind(kindFlag)
	if err != nil {
		return err
	}

	var m tensor.LayoutMapping
	switch kind {
	case tensor.RowMajor:
		m = tensor.NewRowMajor(e)
	case tensor.Strided:
		stridesFlag, _ := cmd.Flags().GetString("strides")
		strides, err := parseIndices(stridesFlag)
		if err != nil {
			return fmt.Errorf("invalid strides %q: %w", stridesFlag, err)
		}
		origin, _ := cmd.Flags().GetUint("origin")
		if strides == nil {
			m = tensor.ContiguousStrided(e)
		} else {
			m = tensor.NewStrided(e, strides, origin)
		}
	case tensor.Tiled:
		tile, err := tileFlag(cmd, cfg)
		if err != nil {
			return err
		}
		m = tensor.NewTiledWith(e, tile, tile)
	}

	slog.Debug("layout", "kind", kind, "shape", e)
	renderTable(cmd.OutOrStdout(), describeLayout(m))
	return nil
}

// describeLayout lists a mapping's properties as table rows.
func describeLayout(m tensor.LayoutMapping) [][]string {
	e := m.Extents()
	data := [][]string{
		{"layout", m.Layout().String()},
		{"extents", e.String()},
		{"rank", strconv.Itoa(e.Rank())},
		{"size", fmt.Sprint(e.Size())},
		{"required span", fmt.Sprint(m.RequiredSpanSize())},
	}

	var strides []string
	for r := 0; r < e.Rank(); r++ {
		if tm, ok := m.(tensor.TiledMapping); ok && r >= e.Rank()-2 {
			h, w := tm.Tile()
			strides = append(strides, fmt.Sprintf("tile %dx%d", h, w))
			break
		}
		strides = append(strides, fmt.Sprint(m.Stride(r)))
	}
	data = append(data, []string{"strides", strings.Join(strides, ", ")})

	if tm, ok := m.(tensor.TiledMapping); ok {
		data = append(data, []string{"padded extents", tm.PaddedExtents().String()})
	}
	if sm, ok := m.(tensor.StridedMapping); ok {
		data = append(data, []string{"origin", fmt.Sprint(sm.Origin())})
	}

	return append(data,
		[]string{"unique", strconv.FormatBool(m.IsUnique())},
		[]string{"exhaustive", strconv.FormatBool(m.IsExhaustive())},
		[]string{"strided", strconv.FormatBool(m.IsStrided())},
		[]string{"always exhaustive", strconv.FormatBool(m.IsAlwaysExhaustive())},
	)
}

// BF16Handler prints the bfloat16 rounding of each argument.
func BF16Handler(cmd *cobra.Command, cfg envconfig.Config, args []string) error {
	vals := make([]float64, len(args))
	src := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", a, err)
		}
		vals[i], src[i] = f, float32(f)
	}

	pc := cfg.Parallel()
	slog.Debug("bf16", "values", len(src), "parallel", pc.Enabled, "workers", pc.NumWorkers)

	dst := make([]bfloat16.BFloat16, len(src))
	bfloat16.FromFloat32Slice(dst, src, pc)

	data := make([][]string, 0, len(args))
	for i, b := range dst {
		data = append(data, []string{
			args[i],
			fmt.Sprintf("0x%04X", b.Bits()),
			b.String(),
			strconv.FormatFloat(math.Abs(vals[i]-b.Float64()), 'g', 3, 64),
		})
	}

	table := newTable(cmd.OutOrStdout())
	table.SetHeader([]string{"INPUT", "BITS", "BFLOAT16", "ABS ERROR"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

// InspectHandler lists the tensors stored in a SafeTensors file.
func InspectHandler(cmd *cobra.Command, args []string) error {
	f, err := safetensors.ReadFile(args[0])
	if err != nil {
		return err
	}

	var data [][]string
	for _, name := range f.Names() {
		info, err := f.Info(name)
		if err != nil {
			return err
		}
		data = append(data, []string{
			name,
			string(info.DType),
			info.Extents().String(),
			f.Layout(name).String(),
			strconv.FormatInt(info.DataOffsets[1]-info.DataOffsets[0], 10),
		})
	}

	table := newTable(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "DTYPE", "SHAPE", "LAYOUT", "BYTES"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

// EnvHandler prints every environment setting.
func EnvHandler(w io.Writer) {
	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)

	data := make([][]string, 0, len(names))
	for _, k := range names {
		v := vars[k]
		data = append(data, []string{v.Name, fmt.Sprint(v.Value), v.Description})
	}

	table := newTable(w)
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.AppendBulk(data)
	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func renderTable(w io.Writer, data [][]string) {
	table := newTable(w)
	table.AppendBulk(data)
	table.Render()
}
