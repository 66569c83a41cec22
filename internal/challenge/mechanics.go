package challenge

import "time"

type tapChallenge struct {
	clock
	target int
	taps   int
}

func (c *tapChallenge) Act() State {
	if c.state != StateRunning {
		return c.state
	}
	c.taps++
	if c.taps >= c.target {
		c.state = StateSucceeded
	}
	return c.state
}

func (c *tapChallenge) Tick(dt time.Duration) State {
	c.advance(dt)
	return c.state
}

func (c *tapChallenge) Finish() Outcome {
	return c.finish()
}

func (c *tapChallenge) View() View {
	return View{
		Station:  c.station,
		Kind:     KindTap,
		State:    c.state,
		TimeLeft: c.timeLeft(),
		Progress: c.taps,
		Target:   c.target,
	}
}

type timingChallenge struct {
	clock
	spec   Spec
	hits   int
	misses int
}

// meter sweeps 0..100..0 once per period
func (c *timingChallenge) meter() float64 {
	phase := float64(c.elapsed%c.spec.Period) / float64(c.spec.Period)
	if phase < 0.5 {
		return phase * 200
	}
	return (1 - phase) * 200
}

func (c *timingChallenge) Act() State {
	if c.state != StateRunning {
		return c.state
	}
	m := c.meter()
	if m >= c.spec.WindowLow && m <= c.spec.WindowHi {
		c.hits++
		if c.hits >= c.spec.Target {
			c.state = StateSucceeded
		}
		return c.state
	}
	c.misses++
	if c.spec.MaxMisses > 0 && c.misses >= c.spec.MaxMisses {
		c.state = StateFailed
	}
	return c.state
}

func (c *timingChallenge) Tick(dt time.Duration) State {
	c.advance(dt)
	return c.state
}

func (c *timingChallenge) Finish() Outcome {
	return c.finish()
}

func (c *timingChallenge) View() View {
	return View{
		Station:  c.station,
		Kind:     KindTiming,
		State:    c.state,
		TimeLeft: c.timeLeft(),
		Progress: c.hits,
		Target:   c.spec.Target,
		Meter:    c.meter(),
		Window:   [2]float64{c.spec.WindowLow, c.spec.WindowHi},
		Misses:   c.misses,
	}
}
