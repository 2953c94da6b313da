package cmdshared

import (
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

// Progress draws a progress bar for the installer's download pool
type Progress struct {
	p     *mpb.Progress
	bar   *mpb.Bar
	done  int64
	total int64
}

func NewProgress() *Progress {
	return &Progress{}
}

func (pr *Progress) Start(stage string, total int) {
	pr.p = mpb.New(mpb.WithWidth(60))
	pr.done = 0
	pr.total = int64(total)
	pr.bar = pr.p.AddBar(pr.total,
		mpb.PrependDecorators(
			decor.Name(stage, decor.WC{W: len(stage) + 1, C: decor.DidentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
}

func (pr *Progress) Increment() {
	if pr.bar == nil {
		return
	}
	pr.done++
	pr.bar.Increment()
}

// Finish waits for the bar to render; a bar cut short by an error is completed at its current count
func (pr *Progress) Finish() {
	if pr.p == nil {
		return
	}
	if pr.done < pr.total {
		pr.bar.SetTotal(pr.done, true)
	}
	pr.p.Wait()
	pr.p = nil
	pr.bar = nil
}
