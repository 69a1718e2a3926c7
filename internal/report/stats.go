package report

import (
	"time"

	"github.com/heinergc/sqlconn/internal/profiles"
)

// Stats summarizes a profile list.
type Stats struct {
	Total      int
	SQLAuth    int
	Integrated int

	Tested      int
	Succeeded   int
	Failed      int
	SuccessRate float64 // percent of tested

	// AverageResponse is over successful tests only.
	AverageResponse time.Duration
	HasAverage      bool
}

func ComputeStats(list []profiles.Profile) Stats {
	s := Stats{Total: len(list)}

	var okTotal time.Duration
	for _, p := range list {
		if p.IntegratedSecurity {
			s.Integrated++
		} else {
			s.SQLAuth++
		}

		o := p.LastTestResult
		if o == nil {
			continue
		}
		s.Tested++
		if o.IsSuccessful {
			s.Succeeded++
			okTotal += o.Elapsed()
		} else {
			s.Failed++
		}
	}

	if s.Tested > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.Tested) * 100
	}
	if s.Succeeded > 0 {
		s.AverageResponse = okTotal / time.Duration(s.Succeeded)
		s.HasAverage = true
	}
	return s
}
