// Package executor — исполнители ордеров. Ядро решает, исполнитель торгует;
// реализация сменная (paper здесь, живой брокер — снаружи).
package executor

import "trade_engine/internal/models"

type Executor interface {
	CanOpenNewPosition(instrument string, isBuy bool) bool
	CanAddToPosition(instrument string, isBuy bool) bool

	OpenPosition(instrument string, isBuy bool, volume float64) error
	AddToPosition(instrument string, isBuy bool, volume float64) error
	// ClosePosition возвращает реализованный профит закрытого тикета.
	ClosePosition(ticket int64) (float64, error)
	// CloseAllPositions закрывает всё по инструменту, возвращает суммарный
	// реализованный профит и успех.
	CloseAllPositions(instrument string) (float64, bool)

	OpenPositions(instrument string) []models.Position
	PositionCount(instrument string) int
	AveragePrice(instrument string, isBuy bool) float64
	TotalProfit(instrument string) float64

	IsTradingAllowed() bool
	CurrentDrawdown() float64 // percent
}

// RiskAuthority — внешний риск-менеджер. Сам факт подключения включает
// risk-гейт условий; сайзинг и лимиты считаются вне ядра.
type RiskAuthority interface {
	Name() string
}
