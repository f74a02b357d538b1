package config

import (
	"strings"
	"testing"
)

const exampleParfile = `
# comment line, ignored
infile=a.L2,b.L2
ofile=out.nc
sday=2007050
eday=2007050
resolve=9
l3bprod=chlor_a,Kd_490
flaguse=ATMFAIL,LAND,~CLDICE
night=0
`

func TestParseParfile(t *testing.T) {
	c, err := ParseParfile(strings.NewReader(exampleParfile))
	if err != nil {
		t.Fatalf("ParseParfile: %v", err)
	}
	if len(c.InFiles) != 2 || c.InFiles[0] != "a.L2" || c.InFiles[1] != "b.L2" {
		t.Errorf("InFiles = %v", c.InFiles)
	}
	if c.OutFile != "out.nc" {
		t.Errorf("OutFile = %q", c.OutFile)
	}
	if c.StartDay != 2007050 || c.EndDay != 2007050 {
		t.Errorf("StartDay/EndDay = %d/%d", c.StartDay, c.EndDay)
	}
	if c.Resolution != Res9Deg {
		t.Errorf("Resolution = %q, want %q", c.Resolution, Res9Deg)
	}
	if len(c.Products) != 2 {
		t.Fatalf("len(Products) = %d, want 2", len(c.Products))
	}
	if c.FlagUse != "ATMFAIL,LAND,~CLDICE" {
		t.Errorf("FlagUse = %q", c.FlagUse)
	}
}

func TestParseTokensDefaultsEndDay(t *testing.T) {
	c, err := ParseTokens([]string{
		"infile=a.L2", "ofile=out.nc", "sday=2007050", "resolve=Q", "l3bprod=chlor_a",
	})
	if err != nil {
		t.Fatalf("ParseTokens: %v", err)
	}
	if c.EndDay != c.StartDay {
		t.Errorf("EndDay = %d, want %d (default to StartDay)", c.EndDay, c.StartDay)
	}
	if c.MinObs != 1 {
		t.Errorf("MinObs default = %d, want 1", c.MinObs)
	}
	if c.Averaging != ModeMean {
		t.Errorf("Averaging default = %q, want mean", c.Averaging)
	}
}

func TestParseTokensRejectsMalformed(t *testing.T) {
	_, err := ParseTokens([]string{"infile_without_equals"})
	if err == nil {
		t.Fatal("expected an error for a token with no '='")
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	c := &Config{}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to reject an empty Config")
	}
}

func TestValidateRejectsMedianWithoutProduct(t *testing.T) {
	c := &Config{
		StartDay: 2007050, EndDay: 2007050,
		InFiles: []string{"a.L2"}, OutFile: "o.nc",
		Resolution: Res1Deg,
		Averaging:  ModeMedian,
	}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to reject median averaging with no designated product")
	}
}

func TestParseTokensMedianWithProduct(t *testing.T) {
	c, err := ParseTokens([]string{
		"infile=a.L2", "ofile=out.nc", "sday=2007050", "resolve=Q", "l3bprod=chlor_a",
		"average=median:chlor_a",
	})
	if err != nil {
		t.Fatalf("ParseTokens: %v", err)
	}
	if c.Averaging != ModeMedian {
		t.Errorf("Averaging = %q, want median", c.Averaging)
	}
	if c.AveragingProduct != "chlor_a" {
		t.Errorf("AveragingProduct = %q, want chlor_a", c.AveragingProduct)
	}
}
