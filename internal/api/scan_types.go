package api

import "github.com/samcharles93/calscan/internal/report"

type ScanResponse struct {
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
	report.Document
}

type ScanSummary struct {
	ID        string `json:"id"`
	Input     string `json:"input,omitempty"`
	InputSize int    `json:"input_size"`
	Tables    int    `json:"tables"`
	CreatedAt int64  `json:"created_at"`
}

type ScanListResponse struct {
	Object string        `json:"object"`
	Data   []ScanSummary `json:"data"`
}

type DeleteScanResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}
