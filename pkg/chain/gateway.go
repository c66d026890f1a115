package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"predix/internal/models"
)

// Gateway talks to the custody/processing backend: the service that holds
// keys, runs risk/compliance screening and watches the chains. Withdrawal
// progress comes back asynchronously through the status webhook.
type Gateway struct {
	BaseURL     string
	APIKey      string
	WebhookBase string
	client      *http.Client
}

func NewGateway(baseURL, apiKey, webhookBase string) *Gateway {
	return &Gateway{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		WebhookBase: webhookBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type submitReq struct {
	ReferenceID        string `json:"reference_id"`
	Asset              string `json:"asset"`
	NetAmount          string `json:"net_amount"`
	DestinationAddress string `json:"destination_address"`
	CallbackURL        string `json:"callback_url"`
}

type submitResp struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// SubmitForApproval enqueues an accepted withdrawal for risk screening and
// broadcast. Completion arrives via the withdrawal-status webhook.
func (g *Gateway) SubmitForApproval(ctx context.Context, w *models.Withdrawal) error {
	callbackURL := ""
	if g.WebhookBase != "" {
		callbackURL = g.WebhookBase + "/api/v1/webhooks/withdrawal-status"
	}
	payload := submitReq{
		ReferenceID:        w.ReferenceID,
		Asset:              w.Asset,
		NetAmount:          w.NetAmount.String(),
		DestinationAddress: w.DestinationAddress,
		CallbackURL:        callbackURL,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/api/v1/withdrawals", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	log.Printf("[Chain] POST %s/api/v1/withdrawals reference_id=%s callback=%s", g.BaseURL, w.ReferenceID, callbackURL)
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("submit withdrawal: %d", resp.StatusCode)
	}
	var out submitResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if !out.Accepted {
		return fmt.Errorf("submit withdrawal rejected: %s", out.Message)
	}
	return nil
}

type depositAddressResp struct {
	Address string `json:"address"`
}

// DepositAddress fetches (deriving if needed) the user's custody address for
// an asset. The derivation scheme is the custody service's business; the
// address is opaque here.
func (g *Gateway) DepositAddress(ctx context.Context, userID uint, asset string) (string, error) {
	url := fmt.Sprintf("%s/api/v1/deposit-addresses?user_id=%d&asset=%s", g.BaseURL, userID, asset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deposit address: %d", resp.StatusCode)
	}
	var out depositAddressResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Address == "" {
		return "", fmt.Errorf("deposit address: empty response")
	}
	return out.Address, nil
}
