package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"cautiva/models"
)

// Dashboard 首页所需的全部派生数据
type Dashboard struct {
	Balance   decimal.Decimal `json:"balance"`
	Months    []MonthOption   `json:"months"`
	Selected  string          `json:"selected"`
	Monthly   Aggregate       `json:"monthly"`
	Chart     []Slice         `json:"chart"`
	CountText string          `json:"count_text"`
	SyncError string          `json:"sync_error,omitempty"`
}

// Summarize 计算仪表盘；month 为空时选择第一个月份选项
func Summarize(txs []models.Transaction, month string, now time.Time, loc *time.Location) (Dashboard, error) {
	options := MonthOptions(txs, now, loc)
	if month == "" {
		month = options[0].Value
	}

	agg, err := MonthlyAggregate(txs, month, loc)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Balance:   Balance(txs),
		Months:    options,
		Selected:  agg.Month,
		Monthly:   agg,
		Chart:     ChartSlices(agg),
		CountText: CountLabel(agg.Count),
	}, nil
}
