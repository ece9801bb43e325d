package model

import "time"

// TaxReport is a derived artifact: aggregate taxable figures for a date
// range, regenerable at any time from transaction history. Rendering the
// figures into a document happens outside this backend.
type TaxReport struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	PeriodStart    time.Time `json:"periodStart"`
	PeriodEnd      time.Time `json:"periodEnd"`
	RewardTotal    float64   `json:"rewardTotal"`
	RewardFeeTotal float64   `json:"rewardFeeTotal"`
	TradeTotal     float64   `json:"tradeTotal"`
	TradeFeeTotal  float64   `json:"tradeFeeTotal"`
	GeneratedAt    time.Time `json:"generatedAt"`
}
