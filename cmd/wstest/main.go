// Package main provides a load testing tool for the staff event feed
// WebSocket endpoint.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the test results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

func main() {
	host := flag.String("host", "localhost:8460", "API server host")
	login := flag.String("login", "admin", "Staff username or email")
	password := flag.String("password", "ChangeMe!Portal123", "Staff password")
	clients := flag.Int("clients", 20, "Number of concurrent feed consumers")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	log.Printf("Starting staff event feed test")
	log.Printf("Target: %s", *host)
	log.Printf("Clients: %d", *clients)
	log.Printf("Duration: %v", *duration)

	token, err := authenticate(*host, *login, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("Logged in successfully")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runConsumer(*host, token, stopChan, &wg)
		time.Sleep(50 * time.Millisecond) // Stagger connections to allow ticket issuance
	}

	select {
	case <-time.After(*duration):
		log.Println("Test duration reached")
	case <-interrupt:
		log.Println("Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for consumers to disconnect...")
	wg.Wait()

	printMetrics()
}

func authenticate(host, login, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	payload := map[string]string{
		"login":    login,
		"password": password,
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Token, nil
}

func getTicket(host, token string) (string, error) {
	ticketURL := fmt.Sprintf("http://%s/api/ws/ticket", host)
	req, _ := http.NewRequest("POST", ticketURL, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket issuance failed with status %d", resp.StatusCode)
	}

	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Ticket, nil
}

func runConsumer(host, token string, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	// Tickets are single-use, so each connection needs a fresh one.
	ticket, err := getTicket(host, token)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + ticket}

	dialer := websocket.DefaultDialer
	c, resp, err := dialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, _, err := c.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
		}
	}()

	select {
	case <-stopChan:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}

func printMetrics() {
	log.Println("\nTest Results")
	log.Println("============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Events Received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
