// Stress driver: seeds a contested product, hammers a running server
// with concurrent checkouts for it, and checks that exactly the stocked
// quantity is sold. Needs the server's MySQL to seed and verify.
//
//	MYSQL_DSN=... STRESS_BASE_URL=http://localhost:8080 go run ./cmd/stress
package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

const (
	totalBuyers = 50
	stockKg     = 20 // each buyer wants 1kg; 30 must hit conflicts
	quantityKg  = 1
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func postJSON(client *http.Client, url string, body map[string]any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func main() {
	baseURL := envOr("STRESS_BASE_URL", "http://localhost:8080")
	mysqlDSN := envOr("MYSQL_DSN", "root:root@tcp(localhost:3306)/grocery?parseTime=true")

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("mysql: %v", err)
	}

	run := uuid.NewString()[:8]
	productID := uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO products (id, name, default_unit, consumer_price, business_price, stock_qty, packaging_qty, visible)
		VALUES (?, ?, 'gms', 80, 72, ?, 500, 1)`,
		productID, "Stress Product "+run, stockKg)
	if err != nil {
		log.Fatalf("seed product: %v", err)
	}

	users := make([]string, totalBuyers)
	addresses := make([]string, totalBuyers)
	for i := range users {
		users[i] = fmt.Sprintf("stress-%s-%d", run, i)
		addresses[i] = uuid.NewString()
		_, err = db.Exec(`
			INSERT INTO addresses (id, user_id, complete_address, city, state, pincode, is_default)
			VALUES (?, ?, '14 MG Road', 'Bengaluru', 'Karnataka', '560001', 1)`,
			addresses[i], users[i])
		if err != nil {
			log.Fatalf("seed address: %v", err)
		}
	}

	defer func() {
		db.Exec(`DELETE FROM orders WHERE user_id LIKE ?`, "stress-"+run+"-%")
		db.Exec(`DELETE FROM addresses WHERE user_id LIKE ?`, "stress-"+run+"-%")
		db.Exec(`DELETE FROM carts WHERE user_id LIKE ?`, "stress-"+run+"-%")
		db.Exec(`DELETE FROM products WHERE id = ?`, productID)
	}()

	client := &http.Client{Timeout: 15 * time.Second}

	var successCount atomic.Int32
	var conflictCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalBuyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			status, err := postJSON(client, baseURL+"/api/cart/add", map[string]any{
				"userId":    users[i],
				"productId": productID,
				"quantity":  quantityKg,
				"unit":      "kg",
			})
			if err != nil || status != http.StatusOK {
				failCount.Add(1)
				return
			}

			status, err = postJSON(client, baseURL+"/api/orders", map[string]any{
				"userId":        users[i],
				"addressId":     addresses[i],
				"paymentMethod": "cod",
				"requestId":     uuid.NewString(),
			})
			switch {
			case err != nil:
				failCount.Add(1)
			case status == http.StatusCreated:
				successCount.Add(1)
			case status == http.StatusConflict:
				conflictCount.Add(1)
			default:
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	var remaining float64
	db.QueryRow(`SELECT stock_qty FROM products WHERE id = ?`, productID).Scan(&remaining)

	fmt.Println("========== STRESS RESULTS ==========")
	fmt.Printf("Total Buyers:     %d\n", totalBuyers)
	fmt.Printf("Orders Placed:    %d\n", successCount.Load())
	fmt.Printf("Stock Conflicts:  %d\n", conflictCount.Load())
	fmt.Printf("Errors:           %d\n", failCount.Load())
	fmt.Printf("Stock Remaining:  %.3f\n", remaining)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("====================================")

	switch {
	case failCount.Load() > 0:
		fmt.Println("FAIL: unexpected errors occurred")
		os.Exit(1)
	case successCount.Load() != stockKg || remaining != 0:
		fmt.Printf("FAIL: expected exactly %d orders and zero stock left\n", stockKg)
		os.Exit(1)
	}
	fmt.Println("PASS: sold exactly the stocked quantity, no oversell")
}
