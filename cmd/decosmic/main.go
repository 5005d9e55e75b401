// Copyright (C) 2025 The decosmic authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/debug"
	"time"
	"github.com/decosmic/decosmic/internal/clean"
	"github.com/decosmic/decosmic/internal/logf"
	"github.com/decosmic/decosmic/internal/ops"
	"github.com/decosmic/decosmic/internal/rest"
	"github.com/pbnjay/memory"
)

const version = "0.1.0"

var totalMiBs=memory.TotalMemory()/1024/1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out  = flag.String("out", "out", "save outputs as `prefix`_<name>.tif")
var jpg  = flag.Bool("jpg", false, "also save false color JPEG previews as <prefix>_<name>.jpg")
var log  = flag.String("log", "%auto", "save log output to `file`. `%auto` derives the name from the output prefix")

var thDonut  = flag.Float64("thDonut", 5, "threshold on the exponentiated donut score")
var thMask   = flag.Float64("thMask", 0.05, "threshold on the normalized mean count for the validity mask, in (0,1)")
var thStreak = flag.Float64("thStreak", 3, "threshold on the exponentiated windowed streak score")
var winStreak= flag.Int64("winStreak", 3, "streak window length in pixels")
var expDonut = flag.Float64("expDonut", 1, "exponent applied to the donut score")
var expStreak= flag.Float64("expStreak", 1, "exponent applied to the windowed streak score")

var hotPixel = flag.Float64("hotPixel", 10000, "zero counts above this value on ingestion, <=0 to disable")
var variance = flag.Bool("variance", false, "also compute the variance outputs")

var bins     = flag.Int64("bins", 4096, "number of histogram bins for the background fit in stats")

var chroot   = flag.String("chroot", "", "(serve mode) change filesystem root to `directory` before serving, requires root")
var setuid   = flag.Int64("setuid", -1, "(serve mode) switch to given numeric user id after chroot, -1 to disable")

func main() {
	logWriter:=os.Stdout
	debug.SetGCPercent(10)
	start:=time.Now()
	flag.Usage=func(){
 	    fmt.Fprintf(logWriter, `Decosmic Copyright (c) 2025 The decosmic authors
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (clean|stats|serve|legal|version) (img0.tif ... imgn.tif)

Commands:
  clean   Aggregate input frames, remove cosmic ray artifacts, and save the named outputs
  stats   Show input frame statistics and background estimates
  serve   Run a REST server on port 8080 accepting processing jobs
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
	    flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log=="%auto" {
		if *out!="" {
			*log=*out+".log"
		} else {
			*log=""
		}
	}
	if *log!="" {
		err:=logf.LogAlsoToFile(*log)
		if err!=nil { logf.LogFatalf("Unable to open logfile '%s'\n", *log) }
	}

	// Enable CPU profiling if flagged
    if *cpuprofile != "" {
        f, err := os.Create(*cpuprofile)
        if err != nil {
            logf.LogFatal("Could not create CPU profile: ", err)
        }
        defer f.Close()
        if err := pprof.StartCPUProfile(f); err != nil {
            logf.LogFatal("Could not start CPU profile: ", err)
        }
        defer pprof.StopCPUProfile()
    }

    args:=flag.Args()
    if len(args)<1 {
    	flag.Usage()
    	return
    }

	oc:=ops.NewContext(logWriter)
	var err error

	// run actions
    switch args[0] {
    case "serve":
    	rest.MakeSandbox(*chroot, int(*setuid))
    	rest.Serve()

    case "stats":
		seq:=ops.NewOpSequence(ops.NewOpLoadMany(args[1:]), ops.NewOpStat(int(*bins)))
		err=runSequence(seq, oc)

	case "clean":
		fmt.Fprintf(logWriter, "Using %d MiB of system memory, %d threads\n", totalMiBs, oc.MaxThreads)
		params:=clean.Params{
			ThDonut:   float32(*thDonut),
			ThMask:    float32(*thMask),
			ThStreak:  float32(*thStreak),
			WinStreak: int32(*winStreak),
			ExpDonut:  float32(*expDonut),
			ExpStreak: float32(*expStreak),
		}
		opClean:=ops.NewOpClean(params, float32(*hotPixel), *variance, *out, *jpg)
		seq:=ops.NewOpSequence(ops.NewOpLoadMany(args[1:]), opClean)
		err=runSequence(seq, oc)

    case "legal":
    	cmdLegal()

    case "version":
    	fmt.Fprintf(logWriter, "Version %s\n", version)

    case "help", "?":
    	flag.Usage()

    default:
    	fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
    	flag.Usage()
    	return
    }

	now:=time.Now()
	elapsed:=now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	// Store memory profile if flagged
    if *memprofile != "" {
        f, err := os.Create(*memprofile)
        if err != nil {
            logf.LogFatal("Could not create memory profile: ", err)
        }
        defer f.Close()
        runtime.GC() // get up-to-date statistics
        if err := pprof.Lookup("allocs").WriteTo(f,0); err != nil {
            logf.LogFatal("Could not write allocation profile: ", err)
        }
    }

    if err!=nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
    logf.LogSync()
}

// Builds and materializes the promises of the given sequence, discarding the frames
func runSequence(seq *ops.OpSequence, oc *ops.Context) error {
	promises, err:=seq.MakePromises(nil, oc)
	if err!=nil { return err }
	_, err=ops.MaterializeAll(promises, oc.MaxThreads, true)
	return err
}
