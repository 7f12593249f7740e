package main

import (
	"flag"
	"log"
	"os"

	"github.com/ihh/plmake/build"
	"github.com/ihh/plmake/progress"
	"github.com/ihh/plmake/rule"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("plmake: ")

	cfg, err := loadConfig("plmake.toml")
	if err != nil {
		log.Fatalf("%v", err)
	}

	var (
		ruleFile string
		jobs     int
		chdir    string
		quiet    bool
	)
	flag.StringVar(&ruleFile, "f", cfg.RuleFile, "rule file to read")
	flag.IntVar(&jobs, "j", cfg.Jobs, "number of jobs to run at once")
	flag.StringVar(&chdir, "C", "", "change to this directory before building")
	flag.BoolVar(&quiet, "q", false, "only print failures")
	flag.Parse()

	if chdir != "" {
		err := os.Chdir(chdir)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}

	set, err := rule.Load(ruleFile)
	if err != nil {
		log.Fatalf("%v", err)
	}

	printer := progress.NewPrinter(os.Stdout)
	if quiet {
		printer.Quiet()
	}
	b := &build.Builder{
		Set:     set,
		Jobs:    jobs,
		Shell:   cfg.Shell,
		Printer: printer,
	}
	err = b.Build(flag.Args())
	if err != nil {
		log.Fatalf("%v", err)
	}
}
