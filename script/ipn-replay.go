package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ReplayResult contains metrics for a single notification delivery
type ReplayResult struct {
	StatusCode   int
	Acknowledged bool
	ResponseTime time.Duration
	Error        error
}

// ReplayStats contains aggregated delivery statistics
type ReplayStats struct {
	TotalRequests int
	Acknowledged  int
	StatusCounts  map[int]int
	ErrorCounts   map[string]int
	ResponseTimes []time.Duration
	TotalTime     time.Duration
	Lock          sync.Mutex
}

// TransactionView is the subset of the transaction lookup response printed after the replay
type TransactionView struct {
	TxnID     string `json:"txnId"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	RewardID  uint64 `json:"rewardId"`
	ProjectID uint64 `json:"projectId"`
}

func main() {
	// Define command line flags
	copies := flag.Int("n", 20, "Number of duplicate notifications to deliver")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	orderID := flag.String("order", "", "Merchant reference (order id) of the notification")
	trackingID := flag.String("tracking", "", "PesaPal transaction tracking id of the notification")
	notificationType := flag.String("type", "CHANGE", "pesapal_notification_type value")
	timeout := flag.Duration("timeout", 30*time.Second, "Per request timeout")
	flag.Parse()

	if *orderID == "" || *trackingID == "" {
		fmt.Fprintln(os.Stderr, "both -order and -tracking are required")
		flag.Usage()
		os.Exit(2)
	}
	if *copies < 1 {
		*copies = 1
	}

	notifyURL := buildNotifyURL(*baseURL, *notificationType, *trackingID, *orderID)
	expectedAck := fmt.Sprintf("pesapal_notification_type=%s&pesapal_transaction_tracking_id=%s&pesapal_merchant_reference=%s",
		*notificationType, *trackingID, *orderID)

	fmt.Printf("Replaying notification for order %s (tracking %s)\n", *orderID, *trackingID)
	fmt.Printf("Endpoint: %s\n", notifyURL)
	fmt.Printf("Concurrent deliveries: %d\n", *copies)

	stats := &ReplayStats{
		TotalRequests: *copies,
		StatusCounts:  make(map[int]int),
		ErrorCounts:   make(map[string]int),
		ResponseTimes: make([]time.Duration, 0, *copies),
	}

	client := &http.Client{Timeout: *timeout}

	// Every worker waits on start so the deliveries race each other
	start := make(chan struct{})
	results := make(chan ReplayResult, *copies)

	var wg sync.WaitGroup
	for i := 0; i < *copies; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- deliver(client, notifyURL, expectedAck)
		}()
	}

	startTime := time.Now()
	close(start)
	wg.Wait()
	close(results)
	stats.TotalTime = time.Since(startTime)

	for result := range results {
		stats.Lock.Lock()
		if result.Error != nil {
			stats.ErrorCounts[result.Error.Error()]++
		} else {
			stats.StatusCounts[result.StatusCode]++
			if result.Acknowledged {
				stats.Acknowledged++
			}
		}
		stats.ResponseTimes = append(stats.ResponseTimes, result.ResponseTime)
		stats.Lock.Unlock()
	}

	printResults(stats)
	printTransaction(client, *baseURL, *orderID)
}

func buildNotifyURL(baseURL, notificationType, trackingID, orderID string) string {
	query := url.Values{}
	query.Set("pesapal_notification_type", notificationType)
	query.Set("pesapal_transaction_tracking_id", trackingID)
	query.Set("pesapal_merchant_reference", orderID)
	return strings.TrimRight(baseURL, "/") + "/api/v1/payments/pesapal/notify?" + query.Encode()
}

func deliver(client *http.Client, notifyURL, expectedAck string) ReplayResult {
	startTime := time.Now()
	resp, err := client.Get(notifyURL)
	result := ReplayResult{ResponseTime: time.Since(startTime)}
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		result.Error = err
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Acknowledged = resp.StatusCode == http.StatusOK && strings.TrimSpace(string(body)) == expectedAck
	return result
}

func printResults(stats *ReplayStats) {
	var avgResponseTime, p50, p95, maxResponseTime time.Duration
	if len(stats.ResponseTimes) > 0 {
		sortedTimes := make([]time.Duration, len(stats.ResponseTimes))
		copy(sortedTimes, stats.ResponseTimes)
		sort.Slice(sortedTimes, func(i, j int) bool { return sortedTimes[i] < sortedTimes[j] })

		var total time.Duration
		for _, d := range sortedTimes {
			total += d
		}
		avgResponseTime = total / time.Duration(len(sortedTimes))
		p50 = sortedTimes[len(sortedTimes)*50/100]
		p95 = sortedTimes[len(sortedTimes)*95/100]
		maxResponseTime = sortedTimes[len(sortedTimes)-1]
	}

	fmt.Println("\n================= REPLAY RESULTS =================")
	fmt.Printf("Deliveries:          %d\n", stats.TotalRequests)
	fmt.Printf("Acknowledged:        %d\n", stats.Acknowledged)
	fmt.Printf("Total Time:          %.2f seconds\n", stats.TotalTime.Seconds())

	fmt.Println("\n----------------- STATUS CODES -----------------")
	codes := make([]int, 0, len(stats.StatusCounts))
	for code := range stats.StatusCounts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("HTTP %d:            %d\n", code, stats.StatusCounts[code])
	}

	if len(stats.ErrorCounts) > 0 {
		fmt.Println("\n----------------- ERRORS -----------------")
		for errMsg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d\n", errMsg, count)
		}
	}

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	fmt.Printf("Average Response:    %v\n", avgResponseTime)
	fmt.Printf("P50 Response:        %v\n", p50)
	fmt.Printf("P95 Response:        %v\n", p95)
	fmt.Printf("Maximum Response:    %v\n", maxResponseTime)
}

// printTransaction shows the single stored transaction the deliveries should have converged on
func printTransaction(client *http.Client, baseURL, orderID string) {
	lookupURL := strings.TrimRight(baseURL, "/") + "/api/v1/payments/transactions/" + url.PathEscape(orderID)

	fmt.Println("\n----------------- STORED TRANSACTION -----------------")
	resp, err := client.Get(lookupURL)
	if err != nil {
		fmt.Printf("Lookup failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Lookup returned HTTP %d\n", resp.StatusCode)
		return
	}

	var txn TransactionView
	if err := json.NewDecoder(resp.Body).Decode(&txn); err != nil {
		fmt.Printf("Could not decode transaction: %v\n", err)
		return
	}

	fmt.Printf("Order:               %s\n", txn.TxnID)
	fmt.Printf("Status:              %s\n", txn.Status)
	fmt.Printf("Amount:              %s %s\n", txn.Amount, txn.Currency)
	fmt.Printf("Project / Reward:    %d / %d\n", txn.ProjectID, txn.RewardID)
	fmt.Println("================================================")
}
