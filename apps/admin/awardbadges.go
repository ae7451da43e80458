package main

import "fmt"

// awardBadges re-evaluates every user's progress and awards whatever is
// missing. Useful after a curriculum change that reduced a phase's
// item count.
func (cli *commandLine) awardBadges() error {
	users, err := cli.usrRepo.QueryAllUsers()
	if err != nil {
		return err
	}

	var awarded, certs int
	for _, usr := range users {
		badges, cert, err := cli.badgeSvc.Evaluate(usr)
		if err != nil {
			return err
		}
		for _, b := range badges {
			fmt.Printf("awarded %q (phase %d) to %s\n", b.PhaseName, b.Phase, usr.Username)
			awarded++
		}
		if cert != nil {
			fmt.Printf("issued certificate %s to %s\n", cert.Code, usr.Username)
			certs++
		}
	}
	fmt.Printf("done: %d users, %d new badges, %d new certificates\n", len(users), awarded, certs)
	return nil
}
