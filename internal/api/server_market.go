package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
)

// tvBar is the wire shape chart libraries expect: "time" plus named OHLC
// fields, with volume under "value".
type tvBar struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	Value float64 `json:"value"`
}

func toTVBars(series market.Series) []tvBar {
	bars := make([]tvBar, len(series))
	for i, b := range series {
		bars[i] = tvBar{Time: b.T, Open: b.O, High: b.H, Low: b.L, Close: b.C, Value: b.V}
	}
	return bars
}

type tickerInput struct {
	Ticker string `path:"ticker"`
}

func registerMarketHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type listTickersOutput struct {
		Body struct {
			Tickers []string `json:"tickers"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tickers", Method: http.MethodGet, Path: "/api/v1/tickers", Summary: "List catalog tickers", Tags: []string{"Market"}},
		func(ctx context.Context, input *struct{}) (*listTickersOutput, error) {
			out := &listTickersOutput{}
			out.Body.Tickers = svc.ListTickers(ctx)
			return out, nil
		})

	type chartOutput struct {
		Body struct {
			Ticker string  `json:"ticker"`
			Bars   []tvBar `json:"bars"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-chart", Method: http.MethodGet, Path: "/api/v1/chart/{ticker}", Summary: "Get daily bars for a ticker", Tags: []string{"Market"}},
		func(ctx context.Context, input *tickerInput) (*chartOutput, error) {
			series, err := svc.ChartBars(ctx, input.Ticker)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &chartOutput{}
			out.Body.Ticker = input.Ticker
			out.Body.Bars = toTVBars(series)
			return out, nil
		})

	type annotationsOutput struct {
		Body annotation.Set
	}
	huma.Register(api, huma.Operation{OperationID: "get-annotations", Method: http.MethodGet, Path: "/api/v1/annotations/{ticker}", Summary: "Get annotations for a ticker", Tags: []string{"Annotations"}},
		func(ctx context.Context, input *tickerInput) (*annotationsOutput, error) {
			set, err := svc.Annotations(ctx, input.Ticker)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &annotationsOutput{}
			out.Body = set
			return out, nil
		})

	type saveAnnotationsInput struct {
		Ticker string `path:"ticker"`
		Body   annotation.Set
	}
	type saveAnnotationsOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "save-annotations", Method: http.MethodPost, Path: "/api/v1/annotations/{ticker}", Summary: "Replace annotations for a ticker", Tags: []string{"Annotations"}},
		func(ctx context.Context, input *saveAnnotationsInput) (*saveAnnotationsOutput, error) {
			if err := svc.SaveAnnotations(ctx, input.Ticker, input.Body); err != nil {
				return nil, mapErr(err)
			}
			out := &saveAnnotationsOutput{}
			out.Body.Status = "saved"
			return out, nil
		})
}
