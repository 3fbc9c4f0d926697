package jobs

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// passthroughEnv is the whitelist of variables copied verbatim from the
// daemon's own environment into every job.
var passthroughEnv = []string{"PATH", "LC_ALL", "LANG"}

// Executor runs a Job's script as a subprocess under a constrained,
// freshly-built environment and working directory.
type Executor struct{}

func NewExecutor() *Executor { return &Executor{} }

// Execute builds the environment and working directory described in the
// job-execution component, spawns the script, waits for it to finish, and
// always tears the working directory down before returning.
func (e *Executor) Execute(job *Job, ctx *Context) (*Output, error) {
	workDir, err := os.MkdirTemp("", "fisher-job-")
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(workDir, 0o700); err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	defer os.RemoveAll(workDir)

	env, err := buildEnv(job, ctx, workDir)
	if err != nil {
		return nil, err
	}

	if job.Provider != nil {
		contrib, err := job.Provider.BuildEnv(job.Request, workDir)
		if err != nil {
			return nil, err
		}
		for k, v := range contrib {
			env[namespacedKey(job.Provider.Name(), k)] = v
		}
	}
	for k, v := range ctx.Environment {
		env[k] = v
	}

	envSlice := make([]string, 0, len(env))
	for k, v := range env {
		envSlice = append(envSlice, k+"="+v)
	}

	cmd := exec.Command(job.Script.Exec)
	cmd.Dir = workDir
	cmd.Env = envSlice
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	out := &Output{
		JobID:      job.ID,
		Stdout:     stdout.Bytes(),
		Stderr:     stderr.Bytes(),
		ScriptName: job.Script.Name,
		RequestIP:  requestIP(job),
	}
	if job.Provider != nil {
		out.TriggerStatusHooks = job.Provider.TriggerStatusHooks()
	} else {
		out.TriggerStatusHooks = true
	}

	switch e := runErr.(type) {
	case nil:
		out.Success = true
		zero := 0
		out.ExitCode = &zero
	case *exec.ExitError:
		if ws, ok := e.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				signal := int(ws.Signal())
				out.Signal = &signal
			} else {
				code := ws.ExitStatus()
				out.ExitCode = &code
				out.Success = code == 0
			}
		} else {
			code := e.ExitCode()
			out.ExitCode = &code
		}
	default:
		return nil, runErr
	}

	return out, nil
}

func requestIP(job *Job) string {
	if job.Request == nil {
		return ""
	}
	if job.Request.IsStatus {
		if job.Request.StatusOutput == nil {
			return ""
		}
		return job.Request.StatusOutput.RequestIP
	}
	if job.Request.Source == nil {
		return ""
	}
	return job.Request.Source.String()
}

func buildEnv(job *Job, ctx *Context, workDir string) (map[string]string, error) {
	env := map[string]string{}

	env["USER"] = currentUsername()
	env["FISHER_JOB_ID"] = job.ID.String()

	for _, key := range passthroughEnv {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	env["HOME"] = workDir

	req := job.Request
	if req != nil {
		if ip := requestIP(job); ip != "" {
			env["FISHER_REQUEST_IP"] = ip
		}
		// FISHER_REQUEST_BODY is omitted for Status requests: a status
		// cascade has no inbound HTTP body to denormalize, only the
		// originating request's source IP (see requestIP).
		if !req.IsStatus {
			bodyPath := filepath.Join(workDir, "request-body")
			if err := os.WriteFile(bodyPath, []byte(req.Body), 0o600); err != nil {
				return nil, err
			}
			env["FISHER_REQUEST_BODY"] = bodyPath
		}
	}

	return env, nil
}

func currentUsername() string {
	u, err := user.Current()
	if err != nil {
		return strconv.Itoa(os.Getuid())
	}
	if u.Username == "" {
		return strconv.Itoa(os.Getuid())
	}
	return u.Username
}

func namespacedKey(providerName, key string) string {
	return fmt.Sprintf("FISHER_%s_%s", strings.ToUpper(providerName), key)
}
