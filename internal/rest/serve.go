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


package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"github.com/gin-gonic/gin"

	"github.com/decosmic/decosmic/internal/ops"
)


func Serve() {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET ("/ping",  getPing)
			v1.POST("/stats", postStats)
			v1.POST("/clean", postClean)
		}
	}
	r.Run() // listen and serve on 0.0.0.0:8080
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m,err:=json.MarshalIndent(args, "", "  ")
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// prepares a streaming text/plain response that doubles as the operator log
func beginTextLog(c *gin.Context, args interface{}) (logWriter gin.ResponseWriter, ok bool) {
	logWriter = c.Writer
	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err:=printArgs(logWriter, "Arguments:\n", "\n", args); err!=nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return logWriter, false
	}
	return logWriter, true
}

type postStatsArgs struct {
	FilePatterns []string    `json:"filePatterns"`
	Stat         *ops.OpStat `json:"stat"`
}

func postStats(c *gin.Context)  {
	var args postStatsArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}
	logWriter, ok:=beginTextLog(c, args)
	if !ok { return }

	opStat:=args.Stat
	if opStat==nil { opStat=ops.NewOpStatDefault() }

	oc:=ops.NewContext(logWriter)
	seq:=ops.NewOpSequence(ops.NewOpLoadMany(args.FilePatterns), opStat)
	promises, err:=seq.MakePromises(nil, oc)
	if err==nil {
		_, err=ops.MaterializeAll(promises, oc.MaxThreads, true)
	}
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	logWriter.(http.Flusher).Flush()
}


type postCleanArgs struct {
	FilePatterns []string     `json:"filePatterns"`
	Clean        *ops.OpClean `json:"clean"`
}

func postClean(c *gin.Context) {
	var args postCleanArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}
	logWriter, ok:=beginTextLog(c, args)
	if !ok { return }

	opClean:=args.Clean
	if opClean==nil { opClean=ops.NewOpCleanDefault() }

	oc:=ops.NewContext(logWriter)
	seq:=ops.NewOpSequence(ops.NewOpLoadMany(args.FilePatterns), opClean)
	promises, err:=seq.MakePromises(nil, oc)
	if err==nil {
		_, err=ops.MaterializeAll(promises, oc.MaxThreads, true)
	}
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	logWriter.(http.Flusher).Flush()
}
