// Package ingest converts raw access-log lines into traffic observations so
// log captures can flow through the same analysis pipeline as structured
// input.
package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/floodsight/floodsight-engine/internal/models"
)

// Format names a supported access-log layout.
type Format string

const (
	FormatApacheCommon Format = "apache_common"
	FormatNginx        Format = "nginx"
)

// clfTimestamp is the common log format time layout.
const clfTimestamp = "02/Jan/2006:15:04:05 -0700"

var (
	apacheCommonPattern = regexp.MustCompile(
		`^(\d+\.\d+\.\d+\.\d+) - - \[(.*?)\] "(.*?)" (\d+) (\d+|-)`)
	nginxPattern = regexp.MustCompile(
		`^(\d+\.\d+\.\d+\.\d+) - - \[(.*?)\] "(.*?)" (\d+) (\d+) "(.*?)" "(.*?)"`)
)

// ParseSummary reports how many lines survived parsing.
type ParseSummary struct {
	TotalLines int `json:"total_lines"`
	Parsed     int `json:"parsed"`
	Skipped    int `json:"skipped"`
}

// ParseLines parses access-log lines into a batch. Lines that do not match
// the format are skipped and counted, not fatal; an unsupported format is an
// error.
func ParseLines(lines []string, format Format) (models.Batch, ParseSummary, error) {
	var pattern *regexp.Regexp
	switch format {
	case FormatApacheCommon, "":
		pattern = apacheCommonPattern
	case FormatNginx:
		pattern = nginxPattern
	default:
		return nil, ParseSummary{}, fmt.Errorf("unsupported log format %q", format)
	}

	summary := ParseSummary{TotalLines: len(lines)}
	batch := make(models.Batch, 0, len(lines))
	for _, line := range lines {
		groups := pattern.FindStringSubmatch(line)
		if groups == nil {
			summary.Skipped++
			continue
		}

		obs := models.Observation{SourceID: groups[1]}
		if ts, err := time.Parse(clfTimestamp, groups[2]); err == nil {
			obs.Timestamp = ts
		}
		if groups[5] != "-" {
			if size, err := strconv.ParseInt(groups[5], 10, 64); err == nil {
				obs.SizeBytes = size
				obs.HasSize = true
			}
		}

		batch = append(batch, obs)
		summary.Parsed++
	}
	return batch, summary, nil
}
