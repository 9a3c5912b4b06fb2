package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/wolfman30/clinic-agenda/internal/agenda"
)

// SeedFile lists agenda configurations to push through the API.
type SeedFile struct {
	Clinics []ClinicSeed `json:"clinics"`
}

// ClinicSeed is one clinic's agenda. Omitted fields keep their current value.
type ClinicSeed struct {
	ClinicID string `json:"clinic_id"`
	agenda.UpdateConfigRequest
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/seed-agenda <seed-file.json>")
		fmt.Println("Example: go run ./scripts/seed-agenda testdata/sample-agenda.json")
		os.Exit(1)
	}

	apiURL := strings.TrimRight(os.Getenv("API_URL"), "/")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("error reading file: %v\n", err)
		os.Exit(1)
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		fmt.Printf("error parsing JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeding %d clinic agenda(s) into %s\n", len(seed.Clinics), apiURL)

	ctx := context.Background()
	client := &http.Client{Timeout: 30 * time.Second}
	failed := 0
	for _, clinic := range seed.Clinics {
		if err := push(ctx, client, apiURL, clinic); err != nil {
			fmt.Printf("  %s: %v\n", clinic.ClinicID, err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("%d clinic(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("agenda seeding complete")
}

func push(ctx context.Context, client *http.Client, apiURL string, clinic ClinicSeed) error {
	if strings.TrimSpace(clinic.ClinicID) == "" {
		return fmt.Errorf("clinic_id is required")
	}
	payload, err := json.Marshal(clinic.UpdateConfigRequest)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/clinics/%s/agenda", apiURL, clinic.ClinicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var result agenda.UpdateConfigResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	fmt.Printf("  %s: %s %v\n", clinic.ClinicID, result.Message, result.ChangedFields)
	return nil
}
