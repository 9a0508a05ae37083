package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/config"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/content"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geo"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geocode"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/service"
)

// NearestOptions holds flags for the nearest command.
type NearestOptions struct {
	*RootOptions
	Lat      float64
	Lon      float64
	Postcode string
}

// NewNearestCommand creates the nearest command.
func NewNearestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NearestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "nearest",
		Short: "Find the home closest to a position or postcode",
		Long: `Find the home closest to a position or UK postcode.

Example:
  bellavista-site nearest --lat 51.48 --lon -3.18
  bellavista-site nearest --postcode "CF62 6BD" --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hasCoords := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")
			if hasCoords == (opts.Postcode != "") {
				return errors.New("provide either --lat and --lon, or --postcode")
			}
			if hasCoords && !(cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon")) {
				return errors.New("--lat and --lon must be given together")
			}
			return runNearest(cmd, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.Lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(&opts.Lon, "lon", 0, "longitude in decimal degrees")
	cmd.Flags().StringVar(&opts.Postcode, "postcode", "", "UK postcode")

	return cmd
}

func runNearest(cmd *cobra.Command, opts *NearestOptions) error {
	cfg, err := config.Load(opts.EnvFiles...)
	if err != nil {
		return err
	}
	svc := service.NewService(content.New(cfg.APIBaseURL), geocode.NewClient(cfg.PostcodesURL, nil), nil)

	var (
		n      geo.Nearest
		coords *geocode.Coordinates
	)
	if opts.Postcode != "" {
		var c geocode.Coordinates
		n, c, err = svc.NearestByPostcode(cmd.Context(), opts.Postcode)
		coords = &c
	} else {
		n, err = svc.NearestByCoordinates(opts.Lat, opts.Lon)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", service.UserMessage(err), err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			geo.Nearest
			Query *geocode.Coordinates `json:"query,omitempty"`
		}{n, coords})
	}

	if coords != nil {
		fmt.Fprintf(out, "Postcode %s (%.4f, %.4f)\n", coords.Postcode, coords.Latitude, coords.Longitude)
	}
	fmt.Fprintf(out, "%s, %.1f miles\n%s\n%s\n", n.Facility.Name, n.DistanceMiles, n.Facility.Address, n.Facility.Link)
	return nil
}
