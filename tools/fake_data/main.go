// Command fake_data seeds a running report server with realistic submissions.
// Reports go through the public API so the full triage, verification and
// trend pipeline runs on every one, exactly as it would for live traffic.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/observability"
)

var (
	reportCount   = flag.Int("reports", 50, "number of reports to submit")
	reporterCount = flag.Int("reporters", 10, "size of the reporter pool")
	voteRounds    = flag.Int("votes", 30, "number of community votes to cast")
	anonFraction  = flag.Float64("anon", 0.2, "fraction of anonymous submissions")
	baseURL       = flag.String("base", "", "server base URL (defaults to http://localhost:$PORT)")
	seed          = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
)

type scenario struct {
	reportType string
	category   string
	titles     []string
	bodies     []string
}

// Scenario text deliberately hits the triage lexicon so the seeded data
// spreads across priority tiers and sentiment buckets.
var scenarios = []scenario{
	{
		reportType: "incident",
		category:   "incident",
		titles: []string{
			"Apartment fire on %s",
			"Car crash at the %s intersection",
			"Person trapped in stalled elevator on %s",
		},
		bodies: []string{
			"Smoke is visible from the street and people are still inside. The response so far has been slow and confusing.",
			"Two vehicles collided and one driver appears injured. Traffic is backing up fast.",
			"Building maintenance is unreachable and the occupant has been stuck for over an hour.",
		},
	},
	{
		reportType: "hazard",
		category:   "hazard",
		titles: []string{
			"Downed power line on %s",
			"Gas leak smell near %s",
			"Flooding across the %s underpass",
		},
		bodies: []string{
			"The line is sparking near the sidewalk. Utility crews have not arrived yet and it feels dangerous.",
			"A strong gas smell around the corner store. Several neighbors reported it too, great that everyone is alert.",
			"Water is rising quickly and cars are turning around. The drainage here fails every storm.",
		},
	},
	{
		reportType: "damage",
		category:   "damage",
		titles: []string{
			"Storm damage to roofs on %s",
			"Partial building collapse behind %s",
			"Broken water main flooding %s",
		},
		bodies: []string{
			"Shingles and debris all over the street after last night's wind. Cleanup help would be amazing.",
			"A back wall gave way overnight. The area is blocked off but it looks unstable.",
			"Water has been running for hours and the road surface is starting to buckle.",
		},
	},
	{
		reportType: "infrastructure",
		category:   "infrastructure",
		titles: []string{
			"Traffic signal out at %s",
			"Large pothole on %s",
			"Street lights dark along %s",
		},
		bodies: []string{
			"The intersection has been a free-for-all all morning. Drivers are confused and it is only getting worse.",
			"Deep enough to damage tires. Several cars have already swerved into the oncoming lane to avoid it.",
			"The whole block has been dark for three nights. Response from the city has been slow.",
		},
	},
	{
		reportType: "resource_need",
		category:   "resource_need",
		titles: []string{
			"Water distribution needed at %s",
			"Shelter space short near %s",
			"Medical supplies requested at %s",
		},
		bodies: []string{
			"The neighborhood has been without running water since the main break. Volunteers are doing excellent work but supplies are thin.",
			"More families arrived overnight than expected. Blankets and cots would help a lot.",
			"The aid station is low on first-aid basics. Any resupply would be appreciated, the staff here are wonderful.",
		},
	},
}

var streets = []string{
	"Elm Street", "Oak Avenue", "5th and Main", "Riverside Drive",
	"Cedar Lane", "Harbor Boulevard", "Mission Road", "Lakeview Terrace",
}

type submitPayload struct {
	Type        string                 `json:"type"`
	Category    string                 `json:"category"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Location    map[string]interface{} `json:"location"`
	Reporter    map[string]interface{} `json:"reporter,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
}

type submitResult struct {
	Report struct {
		ID string `json:"id"`
	} `json:"report"`
}

func main() {
	flag.Parse()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	base := *baseURL
	if base == "" {
		base = "http://localhost:" + cfg.Port
	}

	r := rand.New(rand.NewSource(*seed))
	client := &http.Client{Timeout: 10 * time.Second}

	reporters := make([]string, *reporterCount)
	for i := range reporters {
		reporters[i] = fmt.Sprintf("seed-reporter-%d", i+1)
	}

	var reportIDs []string
	for i := 0; i < *reportCount; i++ {
		payload := randomReport(r, reporters)
		id, err := submit(client, base, payload)
		if err != nil {
			logger.Error("submit report", zap.Error(err), zap.String("title", payload.Title))
			continue
		}
		reportIDs = append(reportIDs, id)
	}
	logger.Info("reports submitted", zap.Int("count", len(reportIDs)))

	if len(reportIDs) == 0 {
		return
	}

	kinds := []string{"up", "confirm", "up", "up", "down"}
	voted := 0
	for i := 0; i < *voteRounds; i++ {
		id := reportIDs[r.Intn(len(reportIDs))]
		voter := fmt.Sprintf("seed-voter-%d", r.Intn(*reporterCount*3))
		kind := kinds[r.Intn(len(kinds))]
		if err := vote(client, base, id, voter, kind); err != nil {
			// duplicate votes from a small voter pool are expected
			continue
		}
		voted++
	}
	logger.Info("votes cast", zap.Int("count", voted))

	fmt.Println("fake data submitted")
}

func randomReport(r *rand.Rand, reporters []string) submitPayload {
	sc := scenarios[r.Intn(len(scenarios))]
	street := streets[r.Intn(len(streets))]

	// scatter around downtown San Francisco
	lat := 37.7749 + (r.Float64()-0.5)*0.1
	lon := -122.4194 + (r.Float64()-0.5)*0.1

	p := submitPayload{
		Type:        sc.reportType,
		Category:    sc.category,
		Title:       fmt.Sprintf(sc.titles[r.Intn(len(sc.titles))], street),
		Description: sc.bodies[r.Intn(len(sc.bodies))],
		Location: map[string]interface{}{
			"lat":        lat,
			"lon":        lon,
			"accuracy_m": float64(r.Intn(80) + 5),
			"address":    street,
		},
	}
	if r.Float64() >= *anonFraction {
		p.Reporter = map[string]interface{}{
			"id":   reporters[r.Intn(len(reporters))],
			"type": "registered",
		}
	}
	if r.Intn(3) == 0 {
		p.Tags = []string{"seeded", sc.category}
	}
	return p
}

func submit(client *http.Client, base string, p submitPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	resp, err := client.Post(base+"/api/reports", "application/json", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out submitResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Report.ID, nil
}

func vote(client *http.Client, base string, reportID, voter, kind string) error {
	b, _ := json.Marshal(map[string]string{"principal_id": voter, "kind": kind})
	resp, err := client.Post(base+"/api/reports/"+reportID+"/vote", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
