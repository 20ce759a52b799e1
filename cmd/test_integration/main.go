// Command test_integration drives a running server through a small family
// and prints what comes back.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	baseURL := os.Getenv("LINEAGE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Println("Starting smoke test...")
	suffix := fmt.Sprintf("%d", time.Now().Unix())

	fmt.Println("1. Creating founder...")
	var founder struct {
		ID string `json:"id"`
	}
	mustPost(client, baseURL+"/members", map[string]interface{}{
		"name": "Founder " + suffix, "gender": "M", "isAlive": false, "deathDate": "1901-05-01",
	}, &founder)
	fmt.Printf("   founder: %s\n", founder.ID)

	fmt.Println("2. Adding two children...")
	for _, name := range []string{"Elder", "Younger"} {
		var child struct {
			ID         string `json:"id"`
			Generation int    `json:"generation"`
		}
		mustPost(client, baseURL+"/members/"+founder.ID+"/children", map[string]interface{}{
			"name": name + " " + suffix, "gender": "M",
		}, &child)
		fmt.Printf("   %s: %s (generation %d)\n", name, child.ID, child.Generation)
	}

	fmt.Println("3. Fetching tree...")
	body := mustGet(client, baseURL+"/tree/"+founder.ID)
	fmt.Println(string(body))

	fmt.Println("4. Exporting GEDCOM...")
	fmt.Println(string(mustGet(client, baseURL+"/export/gedcom")))

	fmt.Println("Smoke test passed")
}

func mustPost(client *http.Client, url string, payload interface{}, out interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		fail("marshal request: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		fail("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		fail("POST %s: status %d: %s", url, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		fail("decode %s: %v", url, err)
	}
}

func mustGet(client *http.Client, url string) []byte {
	resp, err := client.Get(url)
	if err != nil {
		fail("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		fail("GET %s: status %d: %s", url, resp.StatusCode, body)
	}
	return body
}

func fail(format string, args ...interface{}) {
	fmt.Printf("FAIL: "+format+"\n", args...)
	os.Exit(1)
}
