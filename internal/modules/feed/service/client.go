package service

import (
	"context"
	"strconv"
	"time"

	"trade_engine/internal/models"
	"trade_engine/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Client — WebSocket-фид цен и свечей (OKX-совместимый протокол v5).
// Тикеры и свечи живут на отдельных соединениях, каждое со своим
// reconnect-циклом.
type Client struct {
	url       string
	timeframe string
	ping      time.Duration
	insts     []string

	dialer *websocket.Dialer
}

func NewClient(url, timeframe string, ping time.Duration, instruments []string) *Client {
	if ping <= 0 {
		ping = 20 * time.Second
	}
	if timeframe == "" {
		timeframe = "1m"
	}
	return &Client{
		url:       url,
		timeframe: timeframe,
		ping:      ping,
		insts:     instruments,
		dialer:    &websocket.Dialer{},
	}
}

// Start поднимает оба стрима. Блокируется до ctx.Done() внутри горутин не
// нужно — каждый стрим сам следит за контекстом.
func (c *Client) Start(ctx context.Context, ticks chan<- models.PriceTick, candles chan<- models.CandleTick) {
	if c.url == "" || len(c.insts) == 0 {
		logger.Info("feed: url или список инструментов пуст, фид не запущен")
		return
	}
	go c.streamTickers(ctx, ticks)
	go c.streamCandles(ctx, candles)
}

func (c *Client) subscribeArgs(channel string) []map[string]string {
	args := make([]map[string]string, 0, len(c.insts))
	for _, id := range c.insts {
		args = append(args, map[string]string{
			"channel": channel,
			"instId":  id,
		})
	}
	return args
}

// runStream — общий reconnect-цикл: dial, subscribe, keepalive-ping,
// read-loop до ошибки, секунда паузы и заново.
func (c *Client) runStream(ctx context.Context, channel string, onMessage func([]byte)) {
	sub := map[string]any{
		"op":   "subscribe",
		"args": c.subscribeArgs(channel),
	}

	for {
		logger.Info("feed: connect %s, %d instruments", channel, len(c.insts))
		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			logger.Error("feed: dial %s: %v", channel, err)
			if !sleepOrDone(ctx, time.Second) {
				return
			}
			continue
		}

		if err := conn.WriteJSON(sub); err != nil {
			logger.Error("feed: subscribe %s: %v", channel, err)
			_ = conn.Close()
			continue
		}

		// keepalive: без пинга раз в ping сервер рвёт соединение
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(c.ping)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Error("feed: read %s: %v", channel, err)
				break
			}
			onMessage(msg)
		}
		close(stopPing)
		_ = conn.Close()

		if !sleepOrDone(ctx, time.Second) {
			return
		}
	}
}

func (c *Client) streamTickers(ctx context.Context, out chan<- models.PriceTick) {
	c.runStream(ctx, "tickers", func(msg []byte) {
		var frame struct {
			Arg struct {
				Channel string `json:"channel"`
				InstID  string `json:"instId"`
			} `json:"arg"`
			Data []struct {
				Last  string `json:"last"`
				BidPx string `json:"bidPx"`
				AskPx string `json:"askPx"`
				TS    string `json:"ts"`
			} `json:"data"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			return
		}
		if frame.Arg.Channel != "tickers" || len(frame.Data) == 0 {
			return
		}

		for _, row := range frame.Data {
			last, err := strconv.ParseFloat(row.Last, 64)
			if err != nil || last <= 0 {
				continue
			}
			bid, _ := strconv.ParseFloat(row.BidPx, 64)
			ask, _ := strconv.ParseFloat(row.AskPx, 64)
			at := time.Now()
			if ms, err := strconv.ParseInt(row.TS, 10, 64); err == nil {
				at = time.UnixMilli(ms)
			}

			tick := models.PriceTick{
				Instrument: frame.Arg.InstID,
				Bid:        bid,
				Ask:        ask,
				Last:       last,
				At:         at,
			}
			select {
			case out <- tick:
			case <-ctx.Done():
				return
			default:
				// тики скоропортящиеся: насос не успевает — роняем
			}
		}
	})
}

func (c *Client) streamCandles(ctx context.Context, out chan<- models.CandleTick) {
	channel := "candle" + c.timeframe
	c.runStream(ctx, channel, func(msg []byte) {
		var frame struct {
			Arg struct {
				Channel string `json:"channel"`
				InstID  string `json:"instId"`
			} `json:"arg"`
			Data [][]string `json:"data"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			return
		}
		if frame.Arg.Channel != channel || len(frame.Data) == 0 {
			return
		}

		for _, row := range frame.Data {
			// [ts, o, h, l, c, vol, ..., confirm]
			if len(row) < 6 {
				continue
			}
			if row[len(row)-1] != "1" {
				continue // ждём закрытую свечу
			}

			cd, ok := parseCandle(row)
			if !ok {
				continue
			}
			select {
			case out <- models.CandleTick{Instrument: frame.Arg.InstID, Candle: cd}:
			case <-ctx.Done():
				return
			}
		}
	})
}

func parseCandle(row []string) (models.Candle, bool) {
	tsMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.Candle{}, false
	}
	open, err1 := strconv.ParseFloat(row[1], 64)
	high, err2 := strconv.ParseFloat(row[2], 64)
	low, err3 := strconv.ParseFloat(row[3], 64)
	closep, err4 := strconv.ParseFloat(row[4], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || closep <= 0 {
		return models.Candle{}, false
	}
	vol, _ := strconv.ParseFloat(row[5], 64)

	return models.Candle{
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closep,
		Volume: vol,
		Start:  time.UnixMilli(tsMs),
	}, true
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
