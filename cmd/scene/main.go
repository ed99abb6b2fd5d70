package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "vivarium server URL")
	ecosystem := flag.String("ecosystem", "", "default ecosystem for /watch and /log")
	flag.Parse()

	fmt.Println("vivarium scene console")
	fmt.Printf("Server: %s\n", *server)
	fmt.Println("Drive an interaction: <initiator> <target> <type> <content...>")
	fmt.Println("Commands: /characters, /rel <a> <b>, /emotions <id>, /log [ecosystem], exit")
	fmt.Println("---")

	fetchCharacters(*server)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}

		switch {
		case input == "/characters":
			fetchCharacters(*server)
		case strings.HasPrefix(input, "/rel "):
			parts := strings.Fields(input)
			if len(parts) != 3 {
				printError("usage: /rel <a> <b>")
				continue
			}
			fetchRelationship(*server, parts[1], parts[2])
		case strings.HasPrefix(input, "/emotions "):
			fetchEmotions(*server, strings.TrimSpace(strings.TrimPrefix(input, "/emotions ")))
		case strings.HasPrefix(input, "/log"):
			eco := strings.TrimSpace(strings.TrimPrefix(input, "/log"))
			if eco == "" {
				eco = *ecosystem
			}
			if eco == "" {
				printError("usage: /log <ecosystem> (or pass -ecosystem)")
				continue
			}
			fetchLog(*server, eco)
		default:
			sendInteraction(*server, input)
		}
	}
}

func fetchCharacters(server string) {
	resp, err := http.Get(server + "/api/characters")
	if err != nil {
		printError("Failed to fetch characters: %v", err)
		return
	}
	defer resp.Body.Close()

	var chars []struct {
		ID           string  `json:"id"`
		Name         string  `json:"name"`
		SocialEnergy float64 `json:"social_energy"`
		EcosystemID  string  `json:"ecosystem_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chars); err != nil {
		printError("Failed to parse characters: %v", err)
		return
	}
	if len(chars) == 0 {
		fmt.Println("No characters registered yet.")
		return
	}
	fmt.Println("Characters:")
	for _, c := range chars {
		fmt.Printf("  %s (%s) energy=%.2f ecosystem=%s\n", c.Name, c.ID, c.SocialEnergy, c.EcosystemID)
	}
}

func fetchRelationship(server, a, b string) {
	resp, err := http.Get(fmt.Sprintf("%s/api/relationships/%s/%s", server, a, b))
	if err != nil {
		printError("Failed to fetch relationship: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return
	}
	var snap struct {
		Metrics struct {
			Affinity float64 `json:"affinity"`
			Trust    float64 `json:"trust"`
			Rivalry  float64 `json:"rivalry"`
		} `json:"metrics"`
		InteractionCount int `json:"interaction_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		printError("Failed to parse relationship: %v", err)
		return
	}
	fmt.Printf("affinity=%.3f trust=%.3f rivalry=%.3f interactions=%d\n",
		snap.Metrics.Affinity, snap.Metrics.Trust, snap.Metrics.Rivalry, snap.InteractionCount)
}

func fetchEmotions(server, id string) {
	resp, err := http.Get(server + "/api/characters/" + id + "/emotions")
	if err != nil {
		printError("Failed to fetch emotions: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return
	}
	var body struct {
		Intensities map[string]float64 `json:"intensities"`
		Dominant    string             `json:"dominant"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		printError("Failed to parse emotions: %v", err)
		return
	}
	fmt.Printf("dominant: %s\n", body.Dominant)
	for e, v := range body.Intensities {
		fmt.Printf("  %-10s %.3f\n", e, v)
	}
}

func fetchLog(server, ecosystem string) {
	resp, err := http.Get(server + "/api/ecosystems/" + ecosystem + "/interactions?limit=10")
	if err != nil {
		printError("Failed to fetch log: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return
	}
	var recs []struct {
		InitiatorID string `json:"initiator_id"`
		TargetID    string `json:"target_id"`
		Type        string `json:"type"`
		Response    string `json:"response"`
		Timestamp   string `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		printError("Failed to parse log: %v", err)
		return
	}
	for _, r := range recs {
		fmt.Printf("[%s] %s -> %s (%s): %s\n", r.Timestamp, r.InitiatorID, r.TargetID, r.Type, r.Response)
	}
}

// sendInteraction parses "<initiator> <target> <type> <content...>" and
// posts it.
func sendInteraction(server, input string) {
	parts := strings.SplitN(input, " ", 4)
	if len(parts) < 4 {
		printError("usage: <initiator> <target> <type> <content...>")
		return
	}

	body, _ := json.Marshal(map[string]string{
		"initiator_id":     parts[0],
		"target_id":        parts[1],
		"interaction_type": parts[2],
		"content":          parts[3],
	})

	client := &http.Client{Timeout: 65 * time.Second}
	resp, err := client.Post(server+"/api/interactions", "application/json", bytes.NewReader(body))
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return
	}

	var result struct {
		Success  bool   `json:"success"`
		Reason   string `json:"reason"`
		Response string `json:"response"`
		Delta    struct {
			Affinity float64 `json:"affinity"`
			Trust    float64 `json:"trust"`
			Rivalry  float64 `json:"rivalry"`
		} `json:"relationship_delta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}

	if !result.Success {
		fmt.Printf("\033[33mrejected: %s\033[0m\n", result.Reason)
		return
	}
	fmt.Printf("\033[36m%s\033[0m\n", result.Response)
	fmt.Printf("Δ affinity=%+.3f trust=%+.3f rivalry=%+.3f\n",
		result.Delta.Affinity, result.Delta.Trust, result.Delta.Rivalry)
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
}
