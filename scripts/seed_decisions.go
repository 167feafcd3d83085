// seed_decisions.go posts sample scoring requests against a running
// Verdict instance.
//
// Usage:
//
//	go run scripts/seed_decisions.go -api http://localhost:8700 -client seed
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
)

type seedRequest struct {
	path string
	body map[string]interface{}
}

func sampleRequests() []seedRequest {
	return []seedRequest{
		{
			path: "/api/v1/score/fraud",
			body: map[string]interface{}{
				"user": map[string]interface{}{
					"id": "seed-user-1", "verified": false, "phone_present": false,
					"address_present": false, "account_age_days": 2, "ads_posted": 1,
					"ads_last_24h": 7,
				},
				"ad": map[string]interface{}{
					"id": "seed-ad-1", "title": "iPhone 15 Pro wire transfer only",
					"description": "pay outside the platform, whatsapp only",
					"price":       1.0, "image_count": 0,
				},
			},
		},
		{
			path: "/api/v1/score/duplicate",
			body: map[string]interface{}{
				"ad": map[string]interface{}{
					"id": "seed-ad-2", "title": "Trek Marlin 7 mountain bike 2023",
					"price": 650, "category": "bikes", "location": "Leeds",
				},
				"pool": []map[string]interface{}{
					{
						"id": "seed-ad-3", "title": "Trek Marlin 7 mountain bike 2023",
						"price": 660, "category": "bikes", "location": "Leeds",
					},
				},
			},
		},
		{
			path: "/api/v1/price/recommend",
			body: map[string]interface{}{
				"ad": map[string]interface{}{
					"id": "seed-ad-4", "title": "Sony WH-1000XM5 headphones, boxed",
					"description": "Sealed in original packaging with full warranty. Bought as a gift, never opened. Collection or tracked postage.",
					"price":       220, "condition": "new", "image_count": 4,
				},
				"snapshot": map[string]interface{}{
					"avg_price": 240, "min_price": 180, "max_price": 310, "confidence": 80,
					"comparables": []map[string]interface{}{
						{"id": "c1", "price": 230}, {"id": "c2", "price": 245}, {"id": "c3", "price": 250},
					},
				},
			},
		},
		{
			path: "/api/v1/predict/success",
			body: map[string]interface{}{
				"ad": map[string]interface{}{
					"id": "seed-ad-5", "title": "IKEA Billy bookcase, white",
					"description": "Good condition, minor scuff on one shelf. Disassembled and ready for collection.",
					"price":       25, "image_count": 3, "views": 40, "days_active": 4,
				},
				"include_estimates": true,
			},
		},
		{
			path: "/api/v1/dispute/resolve",
			body: map[string]interface{}{
				"dispute_id":   "seed-dispute-1",
				"dispute_type": "item_not_received",
				"evidence": []map[string]interface{}{
					{"type": "receipt", "description": "payment confirmation"},
					{"type": "logs", "description": "courier tracking shows no delivery scan"},
				},
				"transaction": map[string]interface{}{
					"payment_method": "escrow", "shipping_days": 25,
					"has_return_policy": false, "amount": 120, "market_value": 115,
				},
				"history": map[string]interface{}{
					"positive_feedback": 48, "negative_feedback": 2,
					"prior_disputes": 1, "prior_transactions": 50,
				},
			},
		},
	}
}

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "Verdict API base URL")
	clientID := flag.String("client", "seed", "X-Client-ID header value")
	dryRun := flag.Bool("dry-run", false, "print requests without posting")
	flag.Parse()

	for _, req := range sampleRequests() {
		payload, err := json.MarshalIndent(req.body, "", "  ")
		if err != nil {
			log.Fatalf("marshal %s: %v", req.path, err)
		}

		if *dryRun {
			fmt.Printf("POST %s\n%s\n\n", req.path, payload)
			continue
		}

		httpReq, err := http.NewRequest("POST", *apiURL+req.path, bytes.NewReader(payload))
		if err != nil {
			log.Fatalf("build request %s: %v", req.path, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-Client-ID", *clientID)

		resp, err := http.DefaultClient.Do(httpReq)
		if err != nil {
			log.Fatalf("post %s: %v", req.path, err)
		}
		var out json.RawMessage
		_ = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()

		fmt.Printf("POST %s -> %d\n%s\n\n", req.path, resp.StatusCode, out)
	}
}
