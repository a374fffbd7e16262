package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const (
	baseURL   = "http://localhost:3000/api"
	userToken = "REPLACE_WITH_A_VALID_JWT"
)

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // No timeout, LLM turns can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting Triage Pipeline API Test\n")

	// 1. Deterministic classifier (no LLM involved)
	color.Yellow("\n[TRIAGE] 1. Classify Ticket (keyword scoring)")
	classifyReq := map[string]interface{}{
		"subject":     "Production server down",
		"description": "The production server is down, critical outage, all users affected",
	}
	resp, body, err := sendRequest("POST", "/triage/v1/classify", userToken, classifyReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var classifyResp map[string]interface{}
	json.Unmarshal(body, &classifyResp)
	prettyPrint(classifyResp)

	// 2. First triage turn (KB search + agent)
	color.Yellow("\n[TRIAGE] 2. Send First Message")
	msgReq := map[string]interface{}{
		"conversation_id": "smoke-test-conv-001",
		"message":         "My VPN keeps disconnecting every few minutes, how do I fix it?",
		"email":           "smoke@example.com",
		"phone":           "+1 555 010 0199",
		"first_name":      "Smoke",
		"last_name":       "Test",
	}
	resp, body, err = sendRequest("POST", "/triage/v1/message", userToken, msgReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var msgResp map[string]interface{}
	json.Unmarshal(body, &msgResp)
	prettyPrint(msgResp)

	// 3. Follow-up choice turn (only meaningful if turn 2 asked 1-or-2)
	color.Yellow("\n[TRIAGE] 3. Send Follow-up Choice \"1\"")
	choiceReq := map[string]interface{}{
		"conversation_id": "smoke-test-conv-001",
		"message":         "1",
		"email":           "smoke@example.com",
		"phone":           "+1 555 010 0199",
		"first_name":      "Smoke",
		"last_name":       "Test",
	}
	resp, body, err = sendRequest("POST", "/triage/v1/message", userToken, choiceReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var choiceResp map[string]interface{}
	json.Unmarshal(body, &choiceResp)
	prettyPrint(choiceResp)

	// 4. KB article listing
	color.Yellow("\n[KB] 4. List KB Articles")
	resp, body, err = sendRequest("GET", "/kb/v1?limit=5", userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var listResp map[string]interface{}
	json.Unmarshal(body, &listResp)
	prettyPrint(listResp)

	color.Cyan("\n✅ Triage API test finished")
}
