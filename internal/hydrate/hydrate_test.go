package hydrate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

type cartView struct {
	Owner   string        `json:"owner"`
	Items   []cartItem    `json:"items"`
	Total   int           `json:"total"`
	TTL     time.Duration `json:"ttl"`
	Labels  []string      `json:"labels"`
	Enabled bool          `json:"enabled"`
}

type cartItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

func TestDecoderCases(t *testing.T) {
	cases := []struct {
		name      string
		input     any
		options   []DecoderOption[cartView]
		expect    cartView
		expectErr string
	}{
		{
			name: "plain record",
			input: map[string]any{
				"owner": "ada",
				"items": []any{
					map[string]any{"sku": "a-1", "qty": 2},
				},
				"total":   10,
				"ttl":     "5m",
				"enabled": true,
			},
			expect: cartView{
				Owner:   "ada",
				Items:   []cartItem{{SKU: "a-1", Qty: 2}},
				Total:   10,
				TTL:     5 * time.Minute,
				Enabled: true,
			},
		},
		{
			name:      "strict rejects unknown keys",
			input:     map[string]any{"owner": "ada", "extra": 1},
			options:   []DecoderOption[cartView]{WithErrorUnused[cartView]()},
			expectErr: "extra",
		},
		{
			name:    "weak typing converts strings",
			input:   map[string]any{"total": "12"},
			options: []DecoderOption[cartView]{WithWeaklyTypedInput[cartView]()},
			expect:  cartView{Total: 12},
		},
		{
			name:      "type mismatch without weak typing",
			input:     map[string]any{"total": "12"},
			expectErr: "hydrate: decode cart:items",
		},
		{
			name:  "pre and post hooks",
			input: map[string]any{"owner": "  grace  ", "labels": "a,b"},
			options: []DecoderOption[cartView]{
				WithPreHook[cartView](splitLabels),
				WithPostHook[cartView](trimOwner),
			},
			expect: cartView{Owner: "grace", Labels: []string{"a", "b"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoder := NewDecoder[cartView](tc.options...)
			result, err := decoder.Decode(Context{Store: "cart", Path: "items"}, tc.input)

			if tc.expectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.expectErr)
				}
				if !strings.Contains(err.Error(), tc.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.expect, result) {
				t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", tc.expect, result)
			}
		})
	}
}

func TestDecoderDoesNotMutatePayload(t *testing.T) {
	payload := map[string]any{"owner": "ada", "labels": "x,y"}
	decoder := NewDecoder[cartView](WithPreHook[cartView](splitLabels))

	if _, err := decoder.Decode(Context{}, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["labels"] != "x,y" {
		t.Fatalf("expected payload untouched, got %v", payload["labels"])
	}
}

func TestDecoderWrapsHookErrors(t *testing.T) {
	boom := errors.New("boom")
	decoder := NewDecoder[cartView](WithPostHook[cartView](func(Context, *cartView) error { return boom }))

	_, err := decoder.Decode(Context{Path: "cart"}, map[string]any{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped hook error, got %v", err)
	}
	if !strings.Contains(err.Error(), "post-hook for cart") {
		t.Fatalf("expected label in error, got %v", err)
	}
}

func TestDecoderCustomTag(t *testing.T) {
	type scoreView struct {
		Points int `view:"pts"`
	}
	decoder := NewDecoder[scoreView](WithTagName[scoreView]("view"))

	got, err := decoder.Decode(Context{}, map[string]any{"pts": 7})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Points != 7 {
		t.Fatalf("expected 7 points, got %d", got.Points)
	}
}

func splitLabels(_ Context, payload any) (any, error) {
	record, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected record, got %T", payload)
	}
	raw, ok := record["labels"].(string)
	if !ok {
		return payload, nil
	}
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	parts := strings.Split(raw, ",")
	labels := make([]any, 0, len(parts))
	for _, part := range parts {
		labels = append(labels, part)
	}
	out["labels"] = labels
	return out, nil
}

func trimOwner(_ Context, view *cartView) error {
	view.Owner = strings.TrimSpace(view.Owner)
	return nil
}
