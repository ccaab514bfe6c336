package review

import "time"

// Start begins pinging reviewers in the background. It returns immediately;
// the goroutine exits on Close.
func (h *Hub) Start() {
	if h.cfg.PingInterval <= 0 {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(h.cfg.PingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				h.checkConnections(time.Now())
			}
		}
	}()
}

// checkConnections drops reviewers silent for longer than PingInterval +
// PongTimeout and pings the rest.
func (h *Hub) checkConnections(now time.Time) {
	deadline := h.cfg.PingInterval + h.cfg.PongTimeout

	for _, c := range h.conns.snapshot() {
		if idle := c.idle(now); idle > deadline {
			h.log.Infow("[review] heartbeat timeout", "conn", c.id, "idle", idle.Round(time.Second))
			h.remove(c)
			continue
		}
		if err := c.ping(); err != nil {
			h.log.Warnw("[review] heartbeat ping failed", "conn", c.id, "error", err)
			h.remove(c)
		}
	}
}
