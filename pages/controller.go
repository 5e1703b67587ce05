package pages

// Controller owns the ordered page collection and the current index during
// an active menu session. All navigation goes through it so the index can
// never leave the valid range: moving past the last page wraps to the first
// and moving before the first wraps to the last.
type Controller struct {
	pages []Page
	index int
}

// NewController creates a controller positioned on the first page.
func NewController(p []Page) *Controller {
	return &Controller{pages: p}
}

// Pages returns the underlying page collection.
func (c *Controller) Pages() []Page {
	return c.pages
}

// Index returns the current zero-based page index.
func (c *Controller) Index() int {
	return c.index
}

// TotalPages returns the zero-based index of the last page. A one page
// collection has a TotalPages of 0.
func (c *Controller) TotalPages() int {
	return len(c.pages) - 1
}

// Current returns the page at the current index.
func (c *Controller) Current() Page {
	return c.pages[c.index]
}

// Next advances one page, wrapping to the first page when the end is
// passed, and returns the resulting page.
func (c *Controller) Next() Page {
	c.index++
	c.normalize()
	return c.pages[c.index]
}

// Prev moves back one page, wrapping to the last page when the start is
// passed, and returns the resulting page.
func (c *Controller) Prev() Page {
	c.index--
	c.normalize()
	return c.pages[c.index]
}

// First jumps to the first page.
func (c *Controller) First() Page {
	c.index = 0
	return c.pages[c.index]
}

// Last jumps to the last page.
func (c *Controller) Last() Page {
	c.index = c.TotalPages()
	return c.pages[c.index]
}

// Skip moves amount single steps forward or backward. Each step wraps
// individually, so an amount larger than the page count cycles through the
// collection exactly like repeated Next or Prev calls would. A non-positive
// amount is treated as one step.
func (c *Controller) Skip(amount int, forward bool) Page {
	if amount < 1 {
		amount = 1
	}
	for i := 0; i < amount; i++ {
		if forward {
			c.index++
		} else {
			c.index--
		}
		c.normalize()
	}
	return c.pages[c.index]
}

// GoTo sets the index to an absolute position. Out of range values are
// normalized rather than rejected.
func (c *Controller) GoTo(index int) Page {
	c.index = index
	c.normalize()
	return c.pages[c.index]
}

func (c *Controller) normalize() {
	if c.index > c.TotalPages() {
		c.index = 0
	} else if c.index < 0 {
		c.index = c.TotalPages()
	}
}
