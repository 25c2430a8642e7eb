package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nadmax/pulse/internal/correlation"
)

const dateLayout = "2006-01-02"

var seriesColumns = []string{"date", "youtube_views", "web_sessions"}

// readSeries parses a date,youtube_views,web_sessions CSV with a header row and
// returns the points in date order.
func readSeries(r io.Reader) ([]correlation.Point, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(seriesColumns)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, col := range seriesColumns {
		if strings.ToLower(strings.TrimSpace(header[i])) != col {
			return nil, fmt.Errorf("expected header %s, got %s", strings.Join(seriesColumns, ","), strings.Join(header, ","))
		}
	}

	var points []correlation.Point
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		p, err := parsePoint(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, p)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

func parsePoint(record []string) (correlation.Point, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
	if err != nil {
		return correlation.Point{}, fmt.Errorf("invalid date %q", record[0])
	}

	views, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil || views < 0 {
		return correlation.Point{}, fmt.Errorf("invalid youtube_views %q", record[1])
	}

	sessions, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil || sessions < 0 {
		return correlation.Point{}, fmt.Errorf("invalid web_sessions %q", record[2])
	}

	return correlation.Point{Date: date, YoutubeViews: views, WebSessions: sessions}, nil
}
