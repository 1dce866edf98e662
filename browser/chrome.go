package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// Chrome drives a Chrome/Chromium instance over the DevTools protocol. The
// session is exclusively owned by one run.
type Chrome struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration

	closeOnce sync.Once
	closeErr  error
}

var _ Driver = (*Chrome)(nil)

// NewChrome launches a browser session. The parent context bounds the whole
// session lifetime; individual operations are bounded by opts.WaitTimeout.
func NewChrome(parent context.Context, opts Options) (*Chrome, error) {
	timeout := opts.WaitTimeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing binary fails before any workflow
	// step runs.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Chrome{
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		timeout:     timeout,
	}, nil
}

func (c *Chrome) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// queryOption treats selectors starting with "//" as XPath, everything else
// as a CSS query.
func queryOption(sel string) chromedp.QueryOption {
	if strings.HasPrefix(sel, "//") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (c *Chrome) Navigate(url string) error {
	if err := c.run(chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) CurrentURL() (string, error) {
	var url string
	if err := c.run(chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("current url: %w", err)
	}
	return url, nil
}

func (c *Chrome) Click(sel string) error {
	if err := c.run(chromedp.Click(sel, queryOption(sel))); err != nil {
		return fmt.Errorf("click %q: %w", sel, err)
	}
	return nil
}

func (c *Chrome) SendKeys(sel, text string) error {
	if err := c.run(chromedp.SendKeys(sel, text, queryOption(sel))); err != nil {
		return fmt.Errorf("send keys to %q: %w", sel, err)
	}
	return nil
}

func (c *Chrome) Clear(sel string) error {
	if err := c.run(chromedp.Clear(sel, queryOption(sel))); err != nil {
		return fmt.Errorf("clear %q: %w", sel, err)
	}
	return nil
}

func (c *Chrome) Text(sel string) (string, error) {
	var text string
	if err := c.run(chromedp.Text(sel, &text, queryOption(sel))); err != nil {
		return "", fmt.Errorf("text of %q: %w", sel, err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Chrome) Texts(sel string) ([]string, error) {
	var texts []string
	script := fmt.Sprintf(`(function(q) {
		let els;
		if (q.startsWith("//")) {
			els = [];
			const it = document.evaluate(q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			for (let i = 0; i < it.snapshotLength; i++) els.push(it.snapshotItem(i));
		} else {
			els = Array.from(document.querySelectorAll(q));
		}
		return els.map(e => e.textContent.trim());
	})(%q)`, sel)
	if err := c.run(chromedp.Evaluate(script, &texts)); err != nil {
		return nil, fmt.Errorf("texts of %q: %w", sel, err)
	}
	return texts, nil
}

func (c *Chrome) Attribute(sel, name string) (string, bool, error) {
	var value string
	var ok bool
	if err := c.run(chromedp.AttributeValue(sel, name, &value, &ok, queryOption(sel))); err != nil {
		return "", false, fmt.Errorf("attribute %q of %q: %w", name, sel, err)
	}
	return value, ok, nil
}

func (c *Chrome) ElementIDs(substr string) ([]string, error) {
	var ids []string
	script := fmt.Sprintf(
		`Array.from(document.querySelectorAll('[id]')).map(e => e.id).filter(id => id.includes(%q))`,
		substr,
	)
	if err := c.run(chromedp.Evaluate(script, &ids)); err != nil {
		return nil, fmt.Errorf("element ids containing %q: %w", substr, err)
	}
	return ids, nil
}

func (c *Chrome) SelectByValue(sel, value string) error {
	return c.selectOption(sel, value, "value")
}

func (c *Chrome) SelectByText(sel, label string) error {
	return c.selectOption(sel, label, "text")
}

// selectOption picks a <select> option by value or visible text and fires a
// change event, matching what a real click on the dropdown would do.
func (c *Chrome) selectOption(sel, wanted, mode string) error {
	var matched bool
	script := fmt.Sprintf(`(function(q, wanted, mode) {
		let el;
		if (q.startsWith("//")) {
			el = document.evaluate(q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		} else {
			el = document.querySelector(q);
		}
		if (!el) return false;
		for (const opt of el.options) {
			const key = mode === "value" ? opt.value : opt.textContent.trim();
			if (key === wanted) {
				el.value = opt.value;
				el.dispatchEvent(new Event("change", {bubbles: true}));
				return true;
			}
		}
		return false;
	})(%q, %q, %q)`, sel, wanted, mode)
	if err := c.run(chromedp.Evaluate(script, &matched)); err != nil {
		return fmt.Errorf("select option %q on %q: %w", wanted, sel, err)
	}
	if !matched {
		return fmt.Errorf("select %q has no option with %s %q", sel, mode, wanted)
	}
	return nil
}

func (c *Chrome) WaitVisible(sel string) error {
	if err := c.run(chromedp.WaitVisible(sel, queryOption(sel))); err != nil {
		return fmt.Errorf("wait visible %q: %w", sel, err)
	}
	return nil
}

func (c *Chrome) WaitHidden(sel string) error {
	if err := c.run(chromedp.WaitNotVisible(sel, queryOption(sel))); err != nil {
		return fmt.Errorf("wait hidden %q: %w", sel, err)
	}
	return nil
}

func (c *Chrome) WaitURLChange(from string) error {
	deadline := time.Now().Add(c.timeout)
	for {
		current, err := c.CurrentURL()
		if err != nil {
			return err
		}
		if current != from {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("wait for url change from %s: %w", from, context.DeadlineExceeded)
		}
		select {
		case <-c.ctx.Done():
			return c.ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = chromedp.Cancel(c.ctx)
		c.cancelCtx()
		c.cancelAlloc()
	})
	return c.closeErr
}
