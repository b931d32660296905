package models

// Action — итог одного вызова решателя. Ровно одно действие на инструмент за тик.
type Action string

const (
	ActionNone      Action = "NONE"     // невалидный вход / движок не готов
	ActionThinking  Action = "THINKING" // сигнала нет, ждём следующий тик
	ActionHold      Action = "HOLD"
	ActionOpenBuy   Action = "OPEN_BUY"
	ActionOpenSell  Action = "OPEN_SELL"
	ActionAddBuy    Action = "ADD_BUY"
	ActionAddSell   Action = "ADD_SELL"
	ActionCloseBuy  Action = "CLOSE_BUY"
	ActionCloseSell Action = "CLOSE_SELL"
	ActionCloseAll  Action = "CLOSE_ALL"

	// ActionUnknown — сентинел для неразобранных значений, никогда не исполняется.
	ActionUnknown Action = "UNKNOWN"
)

func (a Action) String() string { return string(a) }

// ParseAction не паникует: всё что не знаем — ActionUnknown.
func ParseAction(s string) Action {
	switch Action(s) {
	case ActionNone, ActionThinking, ActionHold,
		ActionOpenBuy, ActionOpenSell,
		ActionAddBuy, ActionAddSell,
		ActionCloseBuy, ActionCloseSell, ActionCloseAll:
		return Action(s)
	}
	return ActionUnknown
}

// IsActionable — дойдёт ли действие до диспетчера.
func (a Action) IsActionable() bool {
	switch a {
	case ActionOpenBuy, ActionOpenSell, ActionAddBuy, ActionAddSell,
		ActionCloseBuy, ActionCloseSell, ActionCloseAll:
		return true
	}
	return false
}

// IsLoggable — open/add/close-all пишем в аудит, hold-шум не пишем.
func (a Action) IsLoggable() bool {
	switch a {
	case ActionOpenBuy, ActionOpenSell, ActionAddBuy, ActionAddSell, ActionCloseAll:
		return true
	}
	return false
}

// IsBuySide — действие затрагивает buy-сторону (для кулдауна).
func (a Action) IsBuySide() bool {
	switch a {
	case ActionOpenBuy, ActionAddBuy, ActionCloseBuy:
		return true
	}
	return false
}

// IsSellSide — затрагивает sell-сторону.
func (a Action) IsSellSide() bool {
	switch a {
	case ActionOpenSell, ActionAddSell, ActionCloseSell:
		return true
	}
	return false
}

// IsOpenOrAdd — только эти действия проверяются на совпадение направления.
func (a Action) IsOpenOrAdd() bool {
	switch a {
	case ActionOpenBuy, ActionOpenSell, ActionAddBuy, ActionAddSell:
		return true
	}
	return false
}
