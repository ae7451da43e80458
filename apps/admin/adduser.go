package main

import (
	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core"
	"github.com/learntocloud/ltc-backend/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username: uname,
			Email:    email,
			Roles:    []string{user.RoleLearner},
		}
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.IsActive = core.BoolPtr(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(usr, usr.IsActive)
	}
	return err
}
