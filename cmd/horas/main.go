// Command horas runs the staffing recommendation and the work-hours
// aggregation on local files.
//
//	horas recommend -file traffic.csv [-atencion 25] [-crecimiento 0.1] [-redondear]
//	horas workhours -file record.json [-pais ES] [-apertura 09:00] [-cierre 21:00]
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/arnavshah/store-scheduler-api/pkg/recommend"
	"github.com/arnavshah/store-scheduler-api/pkg/workhours"
	"github.com/fatih/color"
)

var (
	header = color.New(color.FgBlue, color.Bold)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	muted  = color.New(color.FgHiBlack)
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "recommend":
		err = runRecommend(os.Args[2:], os.Stdout)
	case "workhours":
		err = runWorkHours(os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: horas recommend|workhours -file <path> [flags]")
}

func runRecommend(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	file := fs.String("file", "", "traffic CSV with date,hour,entries columns")
	params := recommend.DefaultParameters()
	fs.Float64Var(&params.DesiredAttention, "atencion", params.DesiredAttention, "customers one employee can attend per hour")
	fs.Float64Var(&params.GrowthFactor, "crecimiento", params.GrowthFactor, "expected growth factor")
	fs.StringVar(&params.OpeningTime, "apertura", "", "opening time HH:MM")
	fs.StringVar(&params.ClosingTime, "cierre", "", "closing time HH:MM")
	fs.BoolVar(&params.RoundToInteger, "redondear", false, "round recommendations to whole employees")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("-file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	samples, err := readTraffic(f)
	if err != nil {
		return err
	}
	res, err := recommend.Compute(samples, params)
	if err != nil {
		return err
	}

	header.Fprintf(out, "%-6s %8s %8s  %s\n", "Hora", "Entradas", "Personal", "Cálculo")
	for _, hour := range res.Hours() {
		rec := res.Recommendations[hour]
		c := good
		if rec.Recommendation >= 1 {
			c = warn
		}
		fmt.Fprintf(out, "%-6s %8d ", hour, rec.Entries)
		c.Fprintf(out, "%8s", strconv.FormatFloat(recommend.Round2(rec.Recommendation), 'f', -1, 64))
		muted.Fprintf(out, "  %s\n", rec.Formula)
	}
	return nil
}

// readTraffic parses a CSV with date (YYYY-MM-DD), hour (HH:00) and entries columns
func readTraffic(r io.Reader) ([]models.TrafficSample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int)
	for i, h := range head {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"date", "hour", "entries"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing %s column", name)
		}
	}

	var samples []models.TrafficSample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		d, err := time.Parse("2006-01-02", record[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", line, record[cols["date"]])
		}
		entries, err := strconv.Atoi(record[cols["entries"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid entries %q", line, record[cols["entries"]])
		}
		samples = append(samples, models.TrafficSample{Date: d, Hour: record[cols["hour"]], Entries: entries})
	}
	return samples, nil
}

func runWorkHours(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("workhours", flag.ContinueOnError)
	file := fs.String("file", "", "JSON object with the activity record fields")
	country := fs.String("pais", "ES", "store country")
	opening := fs.String("apertura", "09:00", "opening time HH:MM")
	closing := fs.String("cierre", "21:00", "closing time HH:MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("-file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decoding %s: %w", *file, err)
	}

	france := workhours.IsFrance(*country)
	slots, err := workhours.SlotLabels(*opening, *closing, france)
	if err != nil {
		return err
	}
	rec := workhours.FromFields("", fields, slots)
	res := workhours.Compute(rec, slots, france)

	header.Fprintf(out, "%s %s\n", rec.EmployeeName, rec.Date)
	for _, label := range slots {
		status := rec.Slots[label]
		if workhours.IsWorkSlot(status) {
			good.Fprintf(out, "  %s %s\n", label, status)
		} else if status != "" {
			muted.Fprintf(out, "  %s %s\n", label, status)
		}
	}
	if res.ActivityType != "" {
		fmt.Fprintf(out, "Actividad: %s\n", res.ActivityType)
	}
	c := muted
	if res.IsWork {
		c = good
	}
	c.Fprintf(out, "%s (%d slots x %s h)\n", res.Status, res.SlotCount,
		strconv.FormatFloat(res.SlotDurationHours, 'f', -1, 64))
	return nil
}
