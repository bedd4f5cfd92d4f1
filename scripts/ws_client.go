// Package main runs a demo WebSocket client for session events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const demoStops = `{"stops":[
	{"address":"Praça da Sé, 1","district":"Sé","lat":-23.5503,"lng":-46.6339,"sequenceLabel":"1"},
	{"address":"Av. Paulista, 1578","district":"Bela Vista","lat":-23.5614,"lng":-46.6559,"sequenceLabel":"2"},
	{"address":"Rua Augusta, 2690","district":"Jardins","lat":-23.5631,"lng":-46.6697,"sequenceLabel":"3"}
]}`

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	driver := os.Getenv("DRIVER_ID")
	if driver == "" {
		driver = "demo"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/session/events", RawQuery: "token=" + url.QueryEscape(driver)}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m map[string]any
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			b, _ := json.Marshal(m)
			log.Printf("WS <- %s", b)
		}
	}()

	var view struct {
		Stops []struct {
			UID     string `json:"uid"`
			Address string `json:"address"`
		} `json:"stops"`
	}
	post(base+"/v1/session/optimize", driver, demoStops, &view)
	if len(view.Stops) == 0 {
		log.Fatal("no stops returned")
	}
	log.Printf("first stop: %s (%s)", view.Stops[0].Address, view.Stops[0].UID)
	post(base+"/v1/session/stops/"+view.Stops[0].UID+"/toggle", driver, "", nil)

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}

func post(target, driver, body string, out any) {
	req, _ := http.NewRequest(http.MethodPost, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Driver-Id", driver)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("%s: %s", target, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatal(err)
		}
	}
}
