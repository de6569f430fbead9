package render

import (
	"github.com/a1s/lazyrows/internal/model1"
	"github.com/derailed/tcell/v2"
)

// EC2Instance renders EC2 instances
type EC2Instance struct {
	Base
}

// Header returns the EC2 instance header
func (*EC2Instance) Header() model1.Header {
	return model1.Header{
		{Name: "INSTANCE-ID"},
		{Name: "NAME"},
		{Name: "TYPE"},
		{Name: "STATE"},
		{Name: "AZ"},
		{Name: "PRIVATE-IP"},
		{Name: "VPC-ID"},
		{Name: "VALID"},
		{Name: "AGE", Attrs: model1.Attrs{Time: true}},
	}
}

// Render renders an EC2 instance to a row
func (e *EC2Instance) Render(o any, row *model1.Row) error {
	obj, err := asObject(o)
	if err != nil {
		return err
	}
	attrs := obj.GetAttrs()

	row.ID = obj.GetID()
	row.Fields = model1.Fields{
		obj.GetID(),
		NA(obj.GetName()),
		attrs["type"],
		attrs["state"],
		NA(attrs["zone"]),
		Missing(attrs["ip"]),
		NA(attrs["vpc"]),
		e.validate(attrs),
		ToAge(obj.GetCreatedAt()),
	}
	return nil
}

// ColorerFunc returns the instance colorer
func (*EC2Instance) ColorerFunc() model1.ColorerFunc {
	return colorBy("STATE", map[string]tcell.Color{
		StateRunning:    model1.StdColor,
		StateStopped:    model1.PendingColor,
		StatePending:    model1.AddColor,
		StateStopping:   model1.AddColor,
		StateShutdown:   model1.AddColor,
		StateTerminated: model1.KillColor,
	})
}

// validate flags instances still serving IMDSv1.
func (*EC2Instance) validate(attrs map[string]string) string {
	var issues []string
	if attrs["http-tokens"] == "optional" {
		issues = append(issues, "imdsv1-enabled")
	}
	return JoinStrings(",", issues...)
}
